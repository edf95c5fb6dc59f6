package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tubefeed/internal/integrations/dearrow"
	"tubefeed/internal/integrations/sponsorblock"
	"tubefeed/internal/media"
	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var noAnnotations bool

	cmd := &cobra.Command{
		Use:     "show <video-id>",
		Aliases: []string{"resolve"},
		Short:   "Show a video's metadata",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				return ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
					video, err := orch.ResolveVideo(runCtx, args[0])
					if err != nil {
						return err
					}

					cfg := ctx.configValue()
					out := cmd.OutOrStdout()

					title := video.Title
					if cfg.DeArrow.Enabled && !noAnnotations {
						if branding, err := dearrow.NewClient(cfg.DeArrow.BaseURL).Branding(runCtx, video.ID); err == nil && branding != nil {
							if replacement := branding.BestTitle(); replacement != "" {
								title = replacement
							}
						}
					}

					fmt.Fprintln(out, title)
					rows := [][]string{
						{"Channel", video.ChannelName},
						{"Channel ID", video.ChannelID},
						{"Length", formatDuration(*video)},
						{"Views", formatViews(video.ViewCount, cfg.Backend.Language)},
					}
					if video.PublishedAt != nil {
						rows = append(rows, []string{"Published", video.PublishedAt.Local().Format(time.DateOnly)})
					}
					if video.ThumbnailURL != "" {
						rows = append(rows, []string{"Thumbnail", video.ThumbnailURL})
					}
					fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

					if cfg.SponsorBlock.Enabled && !noAnnotations {
						printSkipSegments(runCtx, cmd, cfg.SponsorBlock.BaseURL, cfg.SponsorBlock.Categories, video.ID)
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&noAnnotations, "no-annotations", false, "Skip crowd-sourced titles and skip segments")
	return cmd
}

func printSkipSegments(ctx context.Context, cmd *cobra.Command, baseURL string, categories []string, videoID string) {
	segments, err := sponsorblock.NewClient(baseURL, categories).Segments(ctx, videoID)
	if err != nil || len(segments) == 0 {
		return
	}
	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []string{
			seg.Category,
			fmt.Sprintf("%s - %s", clock(seg.Start), clock(seg.End)),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Skippable segments:")
	fmt.Fprintln(out, renderTable([]string{"Category", "Span"}, rows, nil))
}

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "segments <video-id>",
		Short: "List a video's crowd-sourced skip segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			segments, err := sponsorblock.NewClient(cfg.SponsorBlock.BaseURL, cfg.SponsorBlock.Categories).
				Segments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(segments) == 0 {
				fmt.Fprintln(out, "No skip segments reported")
				return nil
			}
			rows := make([][]string, 0, len(segments))
			for _, seg := range segments {
				rows = append(rows, []string{
					seg.Category,
					clock(seg.Start),
					clock(seg.End),
					fmt.Sprintf("%d", seg.Votes),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Start", "End", "Votes"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func clock(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, total%3600/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var sortBy string
	var duration string

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search for videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				return ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
					results, err := orch.Search(runCtx, strings.Join(args, " "), media.SearchOptions{
						SortBy:   sortBy,
						Duration: duration,
						Kind:     "video",
					})
					if err != nil {
						return err
					}
					printVideoList(cmd, ctx, results)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort order: relevance, upload_date, or view_count")
	cmd.Flags().StringVar(&duration, "duration", "", "Length filter: short, medium, or long")
	return cmd
}

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show trending videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				return ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
					target := region
					if target == "" {
						target = ctx.configValue().Backend.Region
					}
					results, err := orch.Trending(runCtx, target)
					if err != nil {
						return err
					}
					printVideoList(cmd, ctx, results)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Two-letter region code (defaults to the configured region)")
	return cmd
}

func printVideoList(cmd *cobra.Command, ctx *commandContext, videos []media.VideoRef) {
	out := cmd.OutOrStdout()
	if len(videos) == 0 {
		fmt.Fprintln(out, "No results")
		return
	}
	lang := ctx.configValue().Backend.Language
	now := time.Now()
	rows := make([][]string, 0, len(videos))
	for _, video := range videos {
		rows = append(rows, []string{
			video.Title,
			video.ChannelName,
			formatDuration(video),
			formatViews(video.ViewCount, lang),
			formatAge(video.PublishedAt, now),
			video.ID,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Title", "Channel", "Length", "Views", "Published", "ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}
