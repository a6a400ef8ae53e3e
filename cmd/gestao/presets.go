package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"gestao/internal/format"
	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

func (cli *CLI) presetsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the preset ranges for today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}
			clock, err := timeframe.NewClock(cfg.Timezone, &timeframe.DefaultTimeProvider{})
			if err != nil {
				return &gateway.ConfigurationError{Field: "timezone", Msg: err.Error()}
			}
			parser := timeframe.NewRangeParser(clock, cfg.HistoryMonths)
			today := parser.Today()
			presets := timeframe.Presets(today)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"today":   today,
					"bounds":  parser.Bounds(),
					"presets": presets,
				})
			}

			fmt.Fprintf(out, "Hoje: %s  (histórico %s)\n", format.DayMonth(today), format.RangeShort(parser.Bounds()))
			for _, p := range presets {
				fmt.Fprintf(out, "  %-10s %-6s %s\n", p.Label, p.Title, format.RangeShort(p.Range))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
