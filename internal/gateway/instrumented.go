package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gestao/internal/timeframe"
)

// Fetch outcomes recorded by Instrumented
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport_error"
	OutcomeProtocol  = "protocol_error"
	OutcomeCancelled = "cancelled"
	OutcomeOther     = "error"
)

// Instrumented decorates a Gateway with prometheus counters and latency histograms
type Instrumented struct {
	next     Gateway
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewInstrumented registers the gateway collectors on reg
func NewInstrumented(next Gateway, reg prometheus.Registerer) (*Instrumented, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gestao",
		Subsystem: "gateway",
		Name:      "fetches_total",
		Help:      "Metrics API fetches by outcome.",
	}, []string{"outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gestao",
		Subsystem: "gateway",
		Name:      "fetch_duration_seconds",
		Help:      "Metrics API fetch latency by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	for _, c := range []prometheus.Collector{requests, duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Instrumented{next: next, requests: requests, duration: duration}, nil
}

func (g *Instrumented) Fetch(ctx context.Context, r timeframe.DateRange) (*PeriodResult, error) {
	start := time.Now()
	result, err := g.next.Fetch(ctx, r)

	outcome := Outcome(err)
	g.requests.WithLabelValues(outcome).Inc()
	g.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return result, err
}

// Outcome classifies a fetch error into a metric label
func Outcome(err error) string {
	var transport *TransportError
	var protocol *ProtocolError
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsCancelled(err):
		return OutcomeCancelled
	case errors.As(err, &transport):
		return OutcomeTransport
	case errors.As(err, &protocol):
		return OutcomeProtocol
	default:
		return OutcomeOther
	}
}
