package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gestao/internal/dashboard"
	"gestao/internal/format"
	"gestao/internal/transition"
)

// Counter is one animated figure of the headline line
type Counter struct {
	Label  string
	From   float64
	To     float64
	Format func(float64) string
}

// HeadlineCounters counts the main KPIs of view up from zero
func HeadlineCounters(view dashboard.View) []Counter {
	if view.Data == nil {
		return nil
	}
	k := view.Data.Kpis
	return []Counter{
		{Label: "Vendas", To: k.Revenue, Format: format.BRL},
		{Label: "Pedidos", To: float64(k.Orders), Format: format.Int},
		{Label: "Sessões", To: float64(k.Sessions), Format: format.Int},
	}
}

// Animate redraws a single line while every counter eases towards its target.
// Cancelling ctx stops the animation where it is.
func Animate(ctx context.Context, w io.Writer, s transition.Scheduler, d time.Duration, counters []Counter) error {
	if len(counters) == 0 {
		return nil
	}

	updates := make(chan struct{}, 1)
	notify := func(float64) {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	transitions := make([]*transition.Transition, len(counters))
	for i, c := range counters {
		tr := transition.New(s, d, c.From)
		tr.OnUpdate(notify)
		transitions[i] = tr
	}
	defer func() {
		for _, tr := range transitions {
			tr.Stop()
		}
	}()

	draw := func() error {
		parts := make([]string, len(counters))
		for i, c := range counters {
			parts[i] = c.Label + " " + c.Format(transitions[i].Value())
		}
		_, err := fmt.Fprintf(w, "\r%s", strings.Join(parts, "   "))
		return err
	}

	for i, c := range counters {
		transitions[i].SetTarget(c.To)
	}

	for {
		settled := !animating(transitions)
		if err := draw(); err != nil {
			return err
		}
		if settled {
			_, err := fmt.Fprintln(w)
			return err
		}
		select {
		case <-updates:
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		}
	}
}

func animating(transitions []*transition.Transition) bool {
	for _, tr := range transitions {
		if tr.Animating() {
			return true
		}
	}
	return false
}
