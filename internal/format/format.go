// Package format renders dashboard figures the way Brazilian users read them
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gestao/internal/analytics"
	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

const (
	// Absent is shown where a delta or value is not available
	Absent = "—"
	// DeltaLabel follows every delta badge
	DeltaLabel = "vs período anterior"

	arrowUp      = "▲"
	arrowDown    = "▼"
	arrowNeutral = "•"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BRL formats an amount in reais, e.g. "R$ 1.234,50"
func BRL(v float64) string {
	v = finiteOrZero(v)
	if v < 0 {
		return "-R$ " + printer.Sprintf("%.2f", -v)
	}
	return "R$ " + printer.Sprintf("%.2f", v)
}

// Int rounds and groups thousands, e.g. "12.345"
func Int(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(finiteOrZero(v))))
}

// Count formats a counter
func Count(v int64) string {
	return printer.Sprintf("%d", v)
}

// Pct formats a fraction as a percentage with the given decimals, e.g. Pct(0.025, 2) = "2,50%"
func Pct(fraction float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", digits), finiteOrZero(fraction)*100) + "%"
}

// DeltaPercent renders the signed change with one decimal, e.g. "+10.0%"
func DeltaPercent(d analytics.Delta) string {
	pct := decimal.NewFromFloat(d.Fraction).Mul(decimal.NewFromInt(100)).StringFixed(1)
	if d.Fraction > 0 {
		pct = "+" + pct
	}
	return pct + "%"
}

// DeltaBadge renders the trend indicator, "—" when the delta is absent
func DeltaBadge(d analytics.Delta, ok bool) string {
	if !ok {
		return Absent
	}
	arrow := arrowNeutral
	switch d.Direction {
	case analytics.DirectionUp:
		arrow = arrowUp
	case analytics.DirectionDown:
		arrow = arrowDown
	}
	return arrow + " " + DeltaPercent(d)
}

// DayMonth formats a date as "dd/mm"
func DayMonth(d timeframe.Date) string {
	return fmt.Sprintf("%02d/%02d", d.Day, int(d.Month))
}

// RangeShort formats a range as "dd/mm → dd/mm"
func RangeShort(r timeframe.DateRange) string {
	return DayMonth(r.Start) + " → " + DayMonth(r.End)
}

// CompareLabel describes the comparison period
func CompareLabel(r timeframe.DateRange) string {
	return "Comparando com " + RangeShort(r)
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// ChannelType renders a channel type badge label
func ChannelType(t gateway.ChannelType) string {
	if t == "" {
		t = gateway.ChannelTypeUnknown
	}
	return titleCaser.String(strings.ToLower(string(t)))
}
