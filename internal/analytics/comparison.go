package analytics

import (
	"fmt"
	"math"

	"gestao/internal/gateway"
)

// Direction of a period-over-period change
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Delta is the relative change of a metric against its comparison period
type Delta struct {
	Fraction  float64   `json:"fraction" yaml:"fraction"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Percent returns the change as a percentage
func (d Delta) Percent() float64 {
	return d.Fraction * 100
}

// CalculateDelta computes (current - previous) / |previous|.
// The delta is absent (ok == false) when either value is not finite or previous is zero.
func CalculateDelta(current, previous float64) (delta Delta, ok bool) {
	if !isFinite(current) || !isFinite(previous) || previous == 0 {
		return Delta{}, false
	}

	fraction := (current - previous) / math.Abs(previous)
	switch {
	case fraction > 0:
		return Delta{Fraction: fraction, Direction: DirectionUp}, true
	case fraction < 0:
		return Delta{Fraction: fraction, Direction: DirectionDown}, true
	default:
		return Delta{Fraction: 0, Direction: DirectionNeutral}, true
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Metric names a comparable figure of the dashboard
type Metric string

const (
	MetricRevenue                 Metric = "revenue"
	MetricOrders                  Metric = "orders"
	MetricAverageOrderValue       Metric = "aov"
	MetricSessions                Metric = "sessions"
	MetricConversionRate          Metric = "conversion_rate"
	MetricNewCustomerOrders       Metric = "new_customer_orders"
	MetricReturningCustomerOrders Metric = "returning_customer_orders"

	MetricFunnelSessions Metric = "funnel_sessions"
	MetricFunnelCart     Metric = "funnel_cart"
	MetricFunnelCheckout Metric = "funnel_checkout"
	MetricFunnelOrders   Metric = "funnel_orders"
)

// KpiMetrics lists the headline metrics in display order
var KpiMetrics = []Metric{
	MetricRevenue,
	MetricOrders,
	MetricAverageOrderValue,
	MetricSessions,
	MetricConversionRate,
	MetricNewCustomerOrders,
	MetricReturningCustomerOrders,
}

// FunnelMetrics lists the funnel stages in order
var FunnelMetrics = []Metric{
	MetricFunnelSessions,
	MetricFunnelCart,
	MetricFunnelCheckout,
	MetricFunnelOrders,
}

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	for _, known := range append(append([]Metric{}, KpiMetrics...), FunnelMetrics...) {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric: %s", s)
}

// MetricValue reads a metric from a period result. KPI metrics come from the authoritative
// KpiSet, funnel metrics from the summed daily funnel.
func MetricValue(result *gateway.PeriodResult, m Metric) (float64, bool) {
	if result == nil {
		return 0, false
	}

	switch m {
	case MetricRevenue:
		return result.Kpis.Revenue, true
	case MetricOrders:
		return float64(result.Kpis.Orders), true
	case MetricAverageOrderValue:
		return result.Kpis.AverageOrderValue, true
	case MetricSessions:
		return float64(result.Kpis.Sessions), true
	case MetricConversionRate:
		return result.Kpis.ConversionRate, true
	case MetricNewCustomerOrders:
		return float64(result.Kpis.NewCustomerOrders), true
	case MetricReturningCustomerOrders:
		return float64(result.Kpis.ReturningCustomerOrders), true
	}

	return funnelValue(SumFunnel(result.DailyFunnel), m)
}

func funnelValue(t FunnelTotals, m Metric) (float64, bool) {
	switch m {
	case MetricFunnelSessions:
		return float64(t.Sessions), true
	case MetricFunnelCart:
		return float64(t.SessionsWithCart), true
	case MetricFunnelCheckout:
		return float64(t.SessionsReachedCheckout), true
	case MetricFunnelOrders:
		return float64(t.ValidApprovedOrders), true
	default:
		return 0, false
	}
}

// DeltaFor compares one metric across two periods; absent when comparison is nil
func DeltaFor(current, comparison *gateway.PeriodResult, m Metric) (Delta, bool) {
	if current == nil || comparison == nil {
		return Delta{}, false
	}
	c, ok := MetricValue(current, m)
	if !ok {
		return Delta{}, false
	}
	p, ok := MetricValue(comparison, m)
	if !ok {
		return Delta{}, false
	}
	return CalculateDelta(c, p)
}

// Comparison holds the deltas of a metric group; metrics without a delta are omitted
type Comparison map[Metric]Delta

// Get returns the delta for m and whether it is present
func (c Comparison) Get(m Metric) (Delta, bool) {
	d, ok := c[m]
	return d, ok
}

// CompareKpis computes a delta for every headline KPI. A nil previous set yields an empty comparison.
func CompareKpis(current, previous *gateway.KpiSet) Comparison {
	out := Comparison{}
	if current == nil || previous == nil {
		return out
	}

	cur := &gateway.PeriodResult{Kpis: *current}
	prev := &gateway.PeriodResult{Kpis: *previous}
	for _, m := range KpiMetrics {
		if d, ok := DeltaFor(cur, prev, m); ok {
			out[m] = d
		}
	}
	return out
}

// CompareFunnel computes a delta for every funnel stage
func CompareFunnel(current FunnelTotals, previous *FunnelTotals) Comparison {
	out := Comparison{}
	if previous == nil {
		return out
	}

	for _, m := range FunnelMetrics {
		c, _ := funnelValue(current, m)
		p, _ := funnelValue(*previous, m)
		if d, ok := CalculateDelta(c, p); ok {
			out[m] = d
		}
	}
	return out
}
