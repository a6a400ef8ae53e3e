package snapshots

import (
	"context"
	"errors"
	"log/slog"

	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

// CachingGateway serves closed periods from the snapshot store.
// A range ending today or later can still change and always goes to the network.
type CachingGateway struct {
	next   gateway.Gateway
	store  *Store
	clock  *timeframe.Clock
	logger *slog.Logger
}

func NewCachingGateway(next gateway.Gateway, store *Store, clock *timeframe.Clock, logger *slog.Logger) *CachingGateway {
	return &CachingGateway{next: next, store: store, clock: clock, logger: logger}
}

// Cacheable reports whether r is entirely in the past
func (g *CachingGateway) Cacheable(r timeframe.DateRange) bool {
	return r.End.Before(g.clock.Today())
}

func (g *CachingGateway) Fetch(ctx context.Context, r timeframe.DateRange) (*gateway.PeriodResult, error) {
	if !g.Cacheable(r) {
		return g.next.Fetch(ctx, r)
	}

	cached, found, err := g.store.Get(ctx, r)
	switch {
	case err != nil:
		g.logger.Warn("Snapshot lookup failed", slog.String("range", r.String()), slog.Any("error", err))
	case found:
		g.logger.Debug("Serving period from snapshot", slog.String("range", r.String()))
		return cached, nil
	}

	result, err := g.next.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := g.store.Put(ctx, r, result); err != nil {
		g.logger.Warn("Snapshot store failed", slog.String("range", r.String()), slog.Any("error", err))
	}

	return result, nil
}

// WarmRanges lists the closed ranges worth prefetching for today: every preset's comparison
// period plus the presets that already ended, without duplicates.
func WarmRanges(today timeframe.Date) []timeframe.DateRange {
	seen := make(map[timeframe.DateRange]struct{})
	var ranges []timeframe.DateRange
	add := func(r timeframe.DateRange) {
		if !r.End.Before(today) {
			return
		}
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		ranges = append(ranges, r)
	}

	for _, p := range timeframe.Presets(today) {
		add(p.Range)
		add(timeframe.PreviousPeriod(p.Range))
	}
	return ranges
}

// Warm fetches every range through gw, calling onStep after each one.
// Failures do not stop the run; they are returned joined.
func Warm(ctx context.Context, gw gateway.Gateway, ranges []timeframe.DateRange, onStep func(r timeframe.DateRange, err error)) error {
	var errs []error
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return &gateway.CancelledError{Err: err}
		}
		_, err := gw.Fetch(ctx, r)
		if err != nil {
			errs = append(errs, err)
		}
		if onStep != nil {
			onStep(r, err)
		}
	}
	return errors.Join(errs...)
}
