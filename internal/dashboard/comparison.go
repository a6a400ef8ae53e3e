package dashboard

import (
	"context"
	"log/slog"

	"gestao/internal/analytics"
	"gestao/internal/gateway"
	"gestao/internal/pkg/async"
	"gestao/internal/timeframe"
)

const (
	taskCurrent    = "current"
	taskComparison = "comparison"
)

// ComparisonOutcome is the published result of one cycle. It is never mutated once built.
type ComparisonOutcome struct {
	Range           timeframe.DateRange   `json:"range" yaml:"range"`
	Current         *gateway.PeriodResult `json:"current" yaml:"current"`
	Comparison      *gateway.PeriodResult `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	ComparisonRange timeframe.DateRange   `json:"comparison_range" yaml:"comparison_range"`
}

// HasComparison reports whether the comparison period was fetched successfully
func (o *ComparisonOutcome) HasComparison() bool {
	return o != nil && o.Comparison != nil
}

func (o *ComparisonOutcome) FunnelTotals() analytics.FunnelTotals {
	return analytics.SumFunnel(o.Current.DailyFunnel)
}

// ComparisonFunnelTotals is nil when the comparison is absent
func (o *ComparisonOutcome) ComparisonFunnelTotals() *analytics.FunnelTotals {
	if !o.HasComparison() {
		return nil
	}
	totals := analytics.SumFunnel(o.Comparison.DailyFunnel)
	return &totals
}

func (o *ComparisonOutcome) ChannelTotals() analytics.ChannelTotals {
	return analytics.SumChannels(o.Current.Channels)
}

// Delta compares one metric with the comparison period
func (o *ComparisonOutcome) Delta(m analytics.Metric) (analytics.Delta, bool) {
	if !o.HasComparison() {
		return analytics.Delta{}, false
	}
	return analytics.DeltaFor(o.Current, o.Comparison, m)
}

func (o *ComparisonOutcome) KpiComparison() analytics.Comparison {
	if !o.HasComparison() {
		return analytics.Comparison{}
	}
	return analytics.CompareKpis(&o.Current.Kpis, &o.Comparison.Kpis)
}

func (o *ComparisonOutcome) FunnelComparison() analytics.Comparison {
	return analytics.CompareFunnel(o.FunnelTotals(), o.ComparisonFunnelTotals())
}

// LoadComparison fetches r and its previous period concurrently, sharing ctx.
// A failure of the current period fails the whole load; a failure of the comparison period
// is logged and leaves Comparison nil.
func LoadComparison(ctx context.Context, gw gateway.Gateway, r timeframe.DateRange, logger *slog.Logger) (*ComparisonOutcome, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	comparisonRange := timeframe.PreviousPeriod(r)

	tasks := []async.Task{
		{
			Name: taskCurrent,
			Execute: func(ctx context.Context) (any, error) {
				return gw.Fetch(ctx, r)
			},
		},
		{
			Name: taskComparison,
			Execute: func(ctx context.Context) (any, error) {
				return gw.Fetch(ctx, comparisonRange)
			},
		},
	}

	pool := async.NewPool(len(tasks))
	results := pool.Execute(ctx, tasks)

	if err := ctx.Err(); err != nil {
		return nil, &gateway.CancelledError{Err: err}
	}

	current, ok := results[taskCurrent]
	if !ok {
		return nil, &gateway.CancelledError{}
	}
	if current.Err != nil {
		return nil, current.Err
	}

	result, _ := current.Data.(*gateway.PeriodResult)
	if result == nil {
		result = &gateway.PeriodResult{}
	}

	outcome := &ComparisonOutcome{
		Range:           r,
		Current:         result,
		ComparisonRange: comparisonRange,
	}

	if comparison, ok := results[taskComparison]; ok {
		if comparison.Err != nil {
			if !gateway.IsCancelled(comparison.Err) {
				logger.Warn("Comparison period fetch failed",
					slog.String("range", comparisonRange.String()),
					slog.Any("error", comparison.Err))
			}
		} else if prev, ok := comparison.Data.(*gateway.PeriodResult); ok && prev != nil {
			outcome.Comparison = prev
		}
	}

	return outcome, nil
}
