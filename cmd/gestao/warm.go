package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gestao/internal/snapshots"
	"gestao/internal/timeframe"
)

func (cli *CLI) warmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Fetch the closed preset ranges into the snapshot cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Store == nil {
				return errors.New("snapshot cache is disabled (GESTAO_CACHE_ENABLED=false)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ranges := snapshots.WarmRanges(app.Clock.Today())
			bar := progressbar.NewOptions(len(ranges),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("warming snapshots"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			var failed int
			err = snapshots.Warm(ctx, app.Gateway, ranges, func(r timeframe.DateRange, err error) {
				if err != nil {
					failed++
				}
				_ = bar.Add(1)
			})
			_ = bar.Finish()

			count, countErr := app.Store.Count(ctx)
			if countErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d ranges warmed, %d failed, %d snapshots cached\n", len(ranges)-failed, failed, count)
			}
			return err
		},
	}
}
