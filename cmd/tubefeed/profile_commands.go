package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubefeed/internal/store"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage profiles",
	}

	profileCmd.AddCommand(newProfileListCommand(ctx))
	profileCmd.AddCommand(newProfileCreateCommand(ctx))
	profileCmd.AddCommand(newProfileRenameCommand(ctx))
	profileCmd.AddCommand(newProfileDeleteCommand(ctx))

	return profileCmd
}

func newProfileListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profiles, err := st.ListProfiles(runCtx)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(profiles))
				for _, p := range profiles {
					rows = append(rows, []string{p.Name, p.CreatedAt.Local().Format(time.DateOnly)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Created"}, rows, nil))
				return nil
			})
		},
	}
}

func newProfileCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := st.CreateProfile(runCtx, args[0])
				if errors.Is(err, store.ErrConflict) {
					return fmt.Errorf("profile %q already exists", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s\n", profile.Name)
				return nil
			})
		},
	}
}

func newProfileRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := st.GetProfileByName(runCtx, args[0])
				if err != nil {
					return fmt.Errorf("profile %q: %w", args[0], err)
				}
				if err := st.RenameProfile(runCtx, profile.ID, args[1]); err != nil {
					if errors.Is(err, store.ErrConflict) {
						return fmt.Errorf("profile %q already exists", args[1])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed profile %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newProfileDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a profile and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				profile, err := st.GetProfileByName(runCtx, args[0])
				if err != nil {
					return fmt.Errorf("profile %q: %w", args[0], err)
				}
				if err := st.DeleteProfile(runCtx, profile.ID); err != nil {
					if errors.Is(err, store.ErrProfileInUse) {
						return fmt.Errorf("cannot delete the last remaining profile")
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
				return nil
			})
		},
	}
}
