package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
	"tubefeed/internal/subfile"
)

func newSubscribeCommand(ctx *commandContext) *cobra.Command {
	var channelName string

	cmd := &cobra.Command{
		Use:   "subscribe <channel-id>",
		Short: "Subscribe the profile to a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				name := strings.TrimSpace(channelName)
				if name == "" {
					// Resolve the profile so the subscription carries a
					// display name.
					err := ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
						channel, err := orch.ResolveChannel(runCtx, args[0])
						if err != nil {
							return err
						}
						name = channel.Name
						return nil
					})
					if err != nil {
						return fmt.Errorf("look up channel %s: %w", args[0], err)
					}
				}

				inserted, err := st.Subscribe(runCtx, profile.ID, args[0], name)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !inserted {
					fmt.Fprintf(out, "Already subscribed to %s\n", args[0])
					return nil
				}
				if name == "" {
					name = args[0]
				}
				fmt.Fprintf(out, "Subscribed to %s\n", name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channelName, "name", "", "Channel display name (skips the lookup)")
	return cmd
}

func newUnsubscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <channel-id>",
		Short: "Remove a channel subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				if err := st.Unsubscribe(runCtx, profile.ID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed from %s\n", args[0])
				return nil
			})
		},
	}
}

func newSubsCommand(ctx *commandContext) *cobra.Command {
	subsCmd := &cobra.Command{
		Use:   "subs",
		Short: "Inspect and transfer subscriptions",
	}

	subsCmd.AddCommand(newSubsListCommand(ctx))
	subsCmd.AddCommand(newSubsSearchCommand(ctx))
	subsCmd.AddCommand(newSubsImportCommand(ctx))
	subsCmd.AddCommand(newSubsExportCommand(ctx))

	return subsCmd
}

func newSubsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				subs, err := st.ListSubscriptions(runCtx, profile.ID)
				if err != nil {
					return err
				}
				printSubscriptions(cmd, subs)
				return nil
			})
		},
	}
}

func newSubsSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search subscriptions by channel name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				subs, err := st.SearchSubscriptions(runCtx, profile.ID, args[0])
				if err != nil {
					return err
				}
				printSubscriptions(cmd, subs)
				return nil
			})
		},
	}
}

func printSubscriptions(cmd *cobra.Command, subs []store.Subscription) {
	if len(subs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No subscriptions")
		return
	}
	rows := make([][]string, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, []string{
			sub.ChannelName,
			sub.ChannelID,
			sub.SubscribedAt.Local().Format(time.DateOnly),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Channel", "ID", "Since"}, rows, nil))
}

func newSubsImportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import subscriptions from an exported file",
		Long: "Import subscriptions from a YouTube takeout CSV, FreeTube profile dump,\n" +
			"NewPipe export, or OPML feed list. The format is detected from the file\n" +
			"unless --format is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}

				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}

				var format subfile.Format
				if formatFlag != "" {
					format, err = subfile.ParseFormat(formatFlag)
				} else {
					format, err = subfile.DetectFormat(filepath.Base(args[0]), data)
				}
				if err != nil {
					return err
				}

				records, rejected, err := subfile.Decode(format, bytes.NewReader(data))
				if err != nil {
					return fmt.Errorf("parse %s as %s: %w", args[0], format, err)
				}

				result, err := st.ImportSubscriptions(runCtx, profile.ID, records)
				if err != nil {
					return err
				}
				result.Rejected += rejected

				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d subscription(s) (%d already present, %d rejected)\n",
					result.Inserted, result.Skipped, result.Rejected)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "Input format: csv, freetube, newpipe, or opml")
	return cmd
}

func newSubsExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export subscriptions to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				subs, err := st.ListSubscriptions(runCtx, profile.ID)
				if err != nil {
					return err
				}

				format := subfile.FormatOPML
				if formatFlag != "" {
					format, err = subfile.ParseFormat(formatFlag)
					if err != nil {
						return err
					}
				}

				file, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				defer file.Close()

				if err := subfile.Encode(format, file, subs); err != nil {
					return fmt.Errorf("write %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d subscription(s) to %s\n", len(subs), args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "opml", "Output format: csv, freetube, newpipe, or opml")
	return cmd
}
