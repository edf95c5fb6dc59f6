package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubefeed/internal/health"
	"tubefeed/internal/store"
)

func newInstancesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "Show fallback instance health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(runCtx context.Context, st *store.Store) error {
				cfg := ctx.configValue()
				monitor := health.NewMonitor(cfg.Instances.URLs)
				saved, err := st.LoadInstanceHealth(runCtx)
				if err != nil {
					return err
				}
				monitor.Restore(saved)

				out := cmd.OutOrStdout()
				color := shouldColorize(out)
				rows := make([][]string, 0, len(cfg.Instances.URLs))
				for _, inst := range monitor.Snapshot() {
					rows = append(rows, []string{
						inst.URL,
						renderInstanceState(inst, color),
						fmt.Sprintf("%.2f", inst.Score),
						fmt.Sprintf("%d", inst.ConsecutiveFailures),
						renderLastChecked(inst.LastChecked),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Instance", "State", "Score", "Failures", "Checked"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func renderInstanceState(inst health.Instance, color bool) string {
	switch inst.State {
	case health.StateHealthy:
		return colorize("healthy", ansiGreen, color)
	case health.StateDegraded:
		return colorize("degraded", ansiYellow, color)
	case health.StateCircuitOpen:
		label := "open"
		if !inst.RetryAt.IsZero() {
			label = fmt.Sprintf("open (retry %s)", inst.RetryAt.Local().Format(time.TimeOnly))
		}
		return colorize(label, ansiRed, color)
	case health.StateProbing:
		return colorize("probing", ansiYellow, color)
	default:
		return string(inst.State)
	}
}

func renderLastChecked(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
