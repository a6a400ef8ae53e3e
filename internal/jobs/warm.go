package jobs

import (
	"context"
	"log/slog"

	"gestao/internal/gateway"
	"gestao/internal/snapshots"
	"gestao/internal/timeframe"
)

// WarmJob fetches the closed preset ranges so the first dashboard load hits the cache
type WarmJob struct {
	gw     gateway.Gateway
	clock  *timeframe.Clock
	logger *slog.Logger
}

func NewWarmJob(gw gateway.Gateway, clock *timeframe.Clock, logger *slog.Logger) *WarmJob {
	return &WarmJob{gw: gw, clock: clock, logger: logger}
}

func (j *WarmJob) Run(ctx context.Context) error {
	ranges := snapshots.WarmRanges(j.clock.Today())
	j.logger.Info("Warming snapshot cache", slog.Int("ranges", len(ranges)))

	var failed int
	err := snapshots.Warm(ctx, j.gw, ranges, func(r timeframe.DateRange, err error) {
		if err != nil {
			failed++
			j.logger.Warn("Failed to warm range", slog.String("range", r.String()), slog.Any("error", err))
		}
	})

	j.logger.Info("Snapshot cache warmed",
		slog.Int("ranges", len(ranges)),
		slog.Int("failed", failed))
	return err
}
