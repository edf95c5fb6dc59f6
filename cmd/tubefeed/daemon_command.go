package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tubefeed/internal/daemon"
	"tubefeed/internal/health"
	"tubefeed/internal/logging"
	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Background maintenance",
	}

	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the maintenance daemon in the foreground",
		Long: "Run the maintenance daemon: it probes fallback instances on the\n" +
			"configured interval, trims watch history past the retention horizon,\n" +
			"and drops expired resolve cache entries. Stop with SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			var cache *resolve.Cache
			if cfg.Resolver.CacheEnabled {
				cache, err = resolve.OpenCache(cfg.ResolveCachePath())
				if err != nil {
					return fmt.Errorf("open resolve cache: %w", err)
				}
				defer cache.Close()
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d := daemon.New(cfg, st, health.NewMonitor(cfg.Instances.URLs), cache, logger)
			if err := d.Start(runCtx); err != nil {
				return err
			}

			<-runCtx.Done()
			d.Stop()
			return nil
		},
	}
}
