package analytics_test

import (
	"math"
	"testing"

	"gestao/internal/analytics"
	"gestao/internal/gateway"
	"gestao/internal/timeframe"

	"github.com/stretchr/testify/assert"
)

func TestSumFunnelEmpty(t *testing.T) {
	totals := analytics.SumFunnel(nil)
	assert.Equal(t, analytics.FunnelTotals{}, totals)

	totals = analytics.SumFunnel([]gateway.FunnelDailyRecord{})
	assert.Zero(t, totals.AddToCartRate)
	assert.Zero(t, totals.CheckoutToPurchaseRate)
}

func TestSumFunnel(t *testing.T) {
	records := []gateway.FunnelDailyRecord{
		{Date: timeframe.MustParseDate("2024-03-01"), Sessions: 100, SessionsWithCart: 10, SessionsReachedCheckout: 5, ValidApprovedOrders: 2},
		{Date: timeframe.MustParseDate("2024-03-02"), Sessions: 300, SessionsWithCart: 30, SessionsReachedCheckout: 15, ValidApprovedOrders: 6},
	}

	totals := analytics.SumFunnel(records)
	assert.Equal(t, int64(400), totals.Sessions)
	assert.Equal(t, int64(40), totals.SessionsWithCart)
	assert.Equal(t, int64(20), totals.SessionsReachedCheckout)
	assert.Equal(t, int64(8), totals.ValidApprovedOrders)
	assert.InDelta(t, 0.1, totals.AddToCartRate, 1e-12)
	assert.InDelta(t, 0.05, totals.CheckoutRate, 1e-12)
	assert.InDelta(t, 0.02, totals.PurchaseRate, 1e-12)
	assert.InDelta(t, 0.4, totals.CheckoutToPurchaseRate, 1e-12)

	// pure: same input, identical output
	assert.Equal(t, totals, analytics.SumFunnel(records))
}

func TestSumFunnelZeroSessions(t *testing.T) {
	totals := analytics.SumFunnel([]gateway.FunnelDailyRecord{
		{Date: timeframe.MustParseDate("2024-03-01"), SessionsReachedCheckout: 0, ValidApprovedOrders: 3},
	})
	assert.Equal(t, int64(3), totals.ValidApprovedOrders)
	assert.Zero(t, totals.PurchaseRate)
	assert.Zero(t, totals.CheckoutToPurchaseRate)
}

func TestSumChannels(t *testing.T) {
	totals := analytics.SumChannels([]gateway.ChannelRecord{
		{Channel: "google", Type: gateway.ChannelTypePaid, Sessions: 300, Revenue: 900, Orders: 6, NewCustomerOrders: 4, ReturningCustomerOrders: 2},
		{Channel: "newsletter", Type: gateway.ChannelTypeEmail, Sessions: 100, Revenue: 100, Orders: 4, NewCustomerOrders: 1, ReturningCustomerOrders: 3},
	})

	assert.Equal(t, int64(400), totals.Sessions)
	assert.Equal(t, 1000.0, totals.Revenue)
	assert.Equal(t, int64(10), totals.Orders)
	assert.Equal(t, int64(5), totals.NewCustomerOrders)
	assert.Equal(t, int64(5), totals.ReturningCustomerOrders)
	assert.InDelta(t, 0.025, totals.ConversionRate, 1e-12)
	assert.InDelta(t, 100.0, totals.AverageOrderValue, 1e-12)
}

func TestSumChannelsZeroOrders(t *testing.T) {
	totals := analytics.SumChannels([]gateway.ChannelRecord{{Channel: "x", Revenue: 50}})
	assert.Zero(t, totals.AverageOrderValue)
	assert.Zero(t, totals.ConversionRate)
	assert.Equal(t, analytics.ChannelTotals{}, analytics.SumChannels(nil))
}

func TestRevenueShare(t *testing.T) {
	testCases := []struct {
		name     string
		revenue  float64
		total    float64
		expected float64
	}{
		{"half", 50, 100, 0.5},
		{"zero total", 50, 0, 0},
		{"negative total", 50, -10, 0},
		{"floating point overshoot", 100.0000001, 100, 1},
		{"negative revenue", -5, 100, 0},
		{"nan total", 5, math.NaN(), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			share := analytics.RevenueShare(gateway.ChannelRecord{Revenue: tc.revenue}, analytics.ChannelTotals{Revenue: tc.total})
			assert.InDelta(t, tc.expected, share, 1e-12)
			assert.GreaterOrEqual(t, share, 0.0)
			assert.LessOrEqual(t, share, 1.0)
		})
	}
}

func TestRevenueShareSumsAcrossChannels(t *testing.T) {
	records := []gateway.ChannelRecord{{Revenue: 0.1}, {Revenue: 0.2}, {Revenue: 0.7}}
	totals := analytics.SumChannels(records)

	var sum float64
	for _, r := range records {
		share := analytics.RevenueShare(r, totals)
		assert.LessOrEqual(t, share, 1.0)
		sum += share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
