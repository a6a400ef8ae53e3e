package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gestao/internal/dashboard"
	"gestao/internal/report"
	"gestao/internal/timeframe"
	"gestao/internal/transition"
)

type reportCmd struct {
	cli     *CLI
	params  timeframe.RangeParserParams
	format  string
	animate bool
}

func (cli *CLI) reportCmd() *cobra.Command {
	rc := &reportCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard for a range compared with its previous period",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.params.FromDate, "start", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&rc.params.ToDate, "end", "", "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&rc.params.Preset, "preset", "", "Preset range: today, yesterday, 7d, 30d or mtd")
	cmd.Flags().StringVar(&rc.format, "format", string(report.FormatText), "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&rc.animate, "animate", false, "Count the headline figures up before printing the report")

	return cmd
}

func (rc *reportCmd) run(cmd *cobra.Command, _ []string) error {
	outputFormat, err := report.ParseFormat(rc.format)
	if err != nil {
		return err
	}

	app, err := rc.cli.buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	r, err := app.Parser.Parse(rc.params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultReportTimeout)
	defer cancel()

	cycle, err := app.Controller.SelectRange(r)
	if err != nil {
		return err
	}
	state, err := cycle.Wait(ctx)
	if err != nil {
		return err
	}

	view := dashboard.NewView(state, app.Parser.Today())
	out := cmd.OutOrStdout()

	if rc.animate && outputFormat == report.FormatText {
		scheduler := transition.NewTimerScheduler(transition.DefaultFrameInterval)
		if err := report.Animate(ctx, out, scheduler, app.Config.GetTransitionDuration(), report.HeadlineCounters(view)); err != nil {
			app.Logger.Debug("Animation interrupted", slog.Any("error", err))
		}
	}

	if err := report.Render(out, view, outputFormat, report.TerminalWidth(out)); err != nil {
		return err
	}

	if state.Status == dashboard.StatusFailed {
		return fmt.Errorf("failed to load %s: %w", r, state.Err)
	}
	return nil
}
