package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var progress int

	cmd := &cobra.Command{
		Use:   "watch <video-id>",
		Short: "Record a video as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}

				entry := store.HistoryEntry{
					ProfileID:       profile.ID,
					VideoID:         args[0],
					ProgressSeconds: progress,
				}
				err = ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
					video, err := orch.ResolveVideo(runCtx, args[0])
					if err != nil {
						return err
					}
					entry.Title = video.Title
					entry.ChannelID = video.ChannelID
					entry.ChannelName = video.ChannelName
					entry.DurationSeconds = video.DurationSeconds
					return nil
				})
				if err != nil {
					// The watch still counts when metadata is unreachable.
					entry.Title = args[0]
				}

				if err := st.RecordWatch(runCtx, entry); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n", entry.Title)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&progress, "progress", 0, "Playback position in seconds")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage watch history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryResetCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List watched videos, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				entries, err := st.ListHistory(runCtx, profile.ID, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "History is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Title,
						entry.ChannelName,
						formatProgress(entry),
						entry.WatchedAt.Local().Format(time.DateTime),
						entry.VideoID,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Title", "Channel", "Progress", "Watched", "ID"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum number of entries to show (0 for all)")
	return cmd
}

// formatProgress renders a watch position against the video length,
// e.g. "12:30 / 24:01" or "done" when playback ran to the end.
func formatProgress(entry store.HistoryEntry) string {
	if entry.DurationSeconds <= 0 {
		if entry.ProgressSeconds <= 0 {
			return "-"
		}
		return clock(float64(entry.ProgressSeconds))
	}
	if entry.ProgressSeconds >= entry.DurationSeconds {
		return "done"
	}
	return fmt.Sprintf("%s / %s", clock(float64(entry.ProgressSeconds)), clock(float64(entry.DurationSeconds)))
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <video-id>",
		Short: "Remove one video from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				if err := st.RemoveWatch(runCtx, profile.ID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from history\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <video-id>",
		Short: "Reset a video's watch position to the start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				if err := st.ResetProgress(runCtx, profile.ID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset progress for %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the profile's entire watch history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("pass --yes to confirm clearing all history")
			}
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				if err := st.ClearHistory(runCtx, profile.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the deletion")
	return cmd
}
