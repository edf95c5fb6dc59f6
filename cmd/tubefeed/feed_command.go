package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubefeed/internal/feed"
	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var unwatchedOnly bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the latest uploads from subscribed channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				cfg := ctx.configValue()

				return ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
					aggregator := feed.New(orch, st, ctx.ensureLogger(),
						feed.WithConcurrency(cfg.Feed.Concurrency))
					result, err := aggregator.Refresh(runCtx, profile.ID)
					if err != nil {
						return err
					}

					out := cmd.OutOrStdout()
					color := shouldColorize(out)
					now := time.Now()

					items := result.Items
					if unwatchedOnly {
						kept := items[:0]
						for _, item := range items {
							if !item.Watched {
								kept = append(kept, item)
							}
						}
						items = kept
					}
					if limit > 0 && len(items) > limit {
						items = items[:limit]
					}

					if len(items) == 0 {
						fmt.Fprintln(out, "Feed is empty")
					} else {
						rows := make([][]string, 0, len(items))
						for _, item := range items {
							watched := ""
							if item.Watched {
								watched = colorize("✓", ansiGreen, color)
							}
							rows = append(rows, []string{
								watched,
								item.Title,
								item.ChannelName,
								formatDuration(item.VideoRef),
								formatAge(item.PublishedAt, now),
								item.ID,
							})
						}
						fmt.Fprintln(out, renderTable(
							[]string{"", "Title", "Channel", "Length", "Published", "ID"},
							rows,
							[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
						))
					}

					for _, chErr := range result.Errors {
						fmt.Fprintln(out, colorize(
							fmt.Sprintf("warning: %s (%s): %v", chErr.ChannelName, chErr.ChannelID, chErr.Err),
							ansiYellow, color))
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&unwatchedOnly, "unwatched", false, "Show only unwatched videos")
	return cmd
}
