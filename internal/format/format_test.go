package format_test

import (
	"math"
	"testing"

	"gestao/internal/analytics"
	"gestao/internal/format"
	"gestao/internal/gateway"
	"gestao/internal/timeframe"

	"github.com/stretchr/testify/assert"
)

func TestNumbers(t *testing.T) {
	assert.Equal(t, "R$ 1.234,50", format.BRL(1234.5))
	assert.Equal(t, "R$ 0,00", format.BRL(math.NaN()))
	assert.Equal(t, "-R$ 10,00", format.BRL(-10))
	assert.Equal(t, "12.346", format.Int(12345.6))
	assert.Equal(t, "1.000", format.Count(1000))
	assert.Equal(t, "2,50%", format.Pct(0.025, 2))
	assert.Equal(t, "75,0%", format.Pct(0.75, 1))
}

func TestDeltaBadge(t *testing.T) {
	testCases := []struct {
		name     string
		current  float64
		previous float64
		expected string
	}{
		{"up", 110, 100, "▲ +10.0%"},
		{"down", 95, 100, "▼ -5.0%"},
		{"neutral", 100, 100, "• 0.0%"},
		{"rounds to one decimal", 1.23456, 1, "▲ +23.5%"},
		{"zero baseline", 10, 0, "—"},
		{"nan", math.NaN(), 10, "—"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := analytics.CalculateDelta(tc.current, tc.previous)
			assert.Equal(t, tc.expected, format.DeltaBadge(d, ok))
		})
	}
}

func TestRangeLabels(t *testing.T) {
	r := timeframe.MustRange("2024-03-01", "2024-03-10")
	assert.Equal(t, "01/03", format.DayMonth(r.Start))
	assert.Equal(t, "01/03 → 10/03", format.RangeShort(r))
	assert.Equal(t, "Comparando com 19/02 → 28/02", format.CompareLabel(timeframe.PreviousPeriod(r)))
}

func TestChannelType(t *testing.T) {
	assert.Equal(t, "Paid", format.ChannelType(gateway.ChannelTypePaid))
	assert.Equal(t, "Unknown", format.ChannelType(""))
}
