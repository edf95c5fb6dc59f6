package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage playlists",
	}

	playlistCmd.AddCommand(newPlaylistListCommand(ctx))
	playlistCmd.AddCommand(newPlaylistCreateCommand(ctx))
	playlistCmd.AddCommand(newPlaylistDeleteCommand(ctx))
	playlistCmd.AddCommand(newPlaylistShowCommand(ctx))
	playlistCmd.AddCommand(newPlaylistAddCommand(ctx))
	playlistCmd.AddCommand(newPlaylistRemoveCommand(ctx))
	playlistCmd.AddCommand(newPlaylistMoveCommand(ctx))

	return playlistCmd
}

func (c *commandContext) lookupPlaylist(ctx context.Context, st *store.Store, name string) (*store.Playlist, error) {
	profile, err := c.currentProfile(ctx, st)
	if err != nil {
		return nil, err
	}
	playlist, err := st.GetPlaylistByName(ctx, profile.ID, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("playlist %q does not exist", name)
	}
	return playlist, err
}

func newPlaylistListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				playlists, err := st.ListPlaylists(runCtx, profile.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(playlists) == 0 {
					fmt.Fprintln(out, "No playlists")
					return nil
				}
				rows := make([][]string, 0, len(playlists))
				for _, p := range playlists {
					rows = append(rows, []string{p.Name, strconv.Itoa(p.Count)})
				}
				fmt.Fprintln(out, renderTable([]string{"Name", "Videos"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newPlaylistCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := ctx.currentProfile(runCtx, st)
				if err != nil {
					return err
				}
				playlist, err := st.CreatePlaylist(runCtx, profile.ID, args[0])
				if errors.Is(err, store.ErrConflict) {
					return fmt.Errorf("playlist %q already exists", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created playlist %s\n", playlist.Name)
				return nil
			})
		},
	}
}

func newPlaylistDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				playlist, err := ctx.lookupPlaylist(runCtx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeletePlaylist(runCtx, playlist.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted playlist %s\n", args[0])
				return nil
			})
		},
	}
}

func newPlaylistShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "List a playlist's videos in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				playlist, err := ctx.lookupPlaylist(runCtx, st, args[0])
				if err != nil {
					return err
				}
				videos, err := st.ListPlaylistVideos(runCtx, playlist.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "Playlist is empty")
					return nil
				}
				rows := make([][]string, 0, len(videos))
				for _, video := range videos {
					rows = append(rows, []string{
						strconv.Itoa(video.Position + 1),
						video.Title,
						video.ChannelName,
						clock(float64(video.DurationSeconds)),
						video.VideoID,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Channel", "Length", "ID"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newPlaylistAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <video-id>",
		Short: "Append a video to a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				playlist, err := ctx.lookupPlaylist(runCtx, st, args[0])
				if err != nil {
					return err
				}

				entry := store.PlaylistVideo{
					PlaylistID: playlist.ID,
					VideoID:    args[1],
				}
				err = ctx.withResolver(runCtx, st, func(runCtx context.Context, orch *resolve.Orchestrator) error {
					video, err := orch.ResolveVideo(runCtx, args[1])
					if err != nil {
						return err
					}
					entry.Title = video.Title
					entry.ChannelName = video.ChannelName
					entry.DurationSeconds = video.DurationSeconds
					return nil
				})
				if err != nil {
					// Keep the entry; metadata fills in on a later resolve.
					entry.Title = args[1]
				}

				if err := st.AddToPlaylist(runCtx, entry); err != nil {
					if errors.Is(err, store.ErrConflict) {
						return fmt.Errorf("video %s is already in playlist %q", args[1], args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", entry.Title, args[0])
				return nil
			})
		},
	}
}

func newPlaylistMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <name> <video-id> <position>",
		Short: "Move a video to a new position (1-based)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[2])
			if err != nil || position < 1 {
				return fmt.Errorf("position must be a positive number, got %q", args[2])
			}
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				playlist, err := ctx.lookupPlaylist(runCtx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.MoveInPlaylist(runCtx, playlist.ID, args[1], position-1); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to position %d\n", args[1], position)
				return nil
			})
		},
	}
}

func newPlaylistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name> <video-id>",
		Short: "Remove a video from a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				playlist, err := ctx.lookupPlaylist(runCtx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.RemoveFromPlaylist(runCtx, playlist.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}
