package analytics

import (
	"math"

	"gestao/internal/gateway"
)

// FunnelTotals sums the daily funnel across a period
type FunnelTotals struct {
	Sessions                int64 `json:"sessions" yaml:"sessions"`
	SessionsWithCart        int64 `json:"sessions_with_cart" yaml:"sessions_with_cart"`
	SessionsReachedCheckout int64 `json:"sessions_reached_checkout" yaml:"sessions_reached_checkout"`
	ValidApprovedOrders     int64 `json:"valid_approved_orders" yaml:"valid_approved_orders"`

	AddToCartRate          float64 `json:"add_to_cart_rate" yaml:"add_to_cart_rate"`
	CheckoutRate           float64 `json:"checkout_rate" yaml:"checkout_rate"`
	PurchaseRate           float64 `json:"purchase_rate" yaml:"purchase_rate"`
	CheckoutToPurchaseRate float64 `json:"checkout_to_purchase_rate" yaml:"checkout_to_purchase_rate"`
}

// ChannelTotals sums channel performance across all channels
type ChannelTotals struct {
	Sessions                int64   `json:"sessions" yaml:"sessions"`
	Revenue                 float64 `json:"revenue" yaml:"revenue"`
	Orders                  int64   `json:"orders" yaml:"orders"`
	NewCustomerOrders       int64   `json:"new_customer_orders" yaml:"new_customer_orders"`
	ReturningCustomerOrders int64   `json:"returning_customer_orders" yaml:"returning_customer_orders"`

	ConversionRate    float64 `json:"conversion_rate" yaml:"conversion_rate"`
	AverageOrderValue float64 `json:"average_order_value" yaml:"average_order_value"`
}

// safeDiv returns 0 for a zero denominator
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// SumFunnel reduces daily funnel records into totals and derived rates.
// An empty slice yields all zeros.
func SumFunnel(records []gateway.FunnelDailyRecord) FunnelTotals {
	var t FunnelTotals
	for _, r := range records {
		t.Sessions += r.Sessions
		t.SessionsWithCart += r.SessionsWithCart
		t.SessionsReachedCheckout += r.SessionsReachedCheckout
		t.ValidApprovedOrders += r.ValidApprovedOrders
	}

	sessions := float64(t.Sessions)
	t.AddToCartRate = safeDiv(float64(t.SessionsWithCart), sessions)
	t.CheckoutRate = safeDiv(float64(t.SessionsReachedCheckout), sessions)
	t.PurchaseRate = safeDiv(float64(t.ValidApprovedOrders), sessions)
	t.CheckoutToPurchaseRate = safeDiv(float64(t.ValidApprovedOrders), float64(t.SessionsReachedCheckout))

	return t
}

// SumChannels reduces channel records into totals with overall conversion and AOV
func SumChannels(records []gateway.ChannelRecord) ChannelTotals {
	var t ChannelTotals
	for _, r := range records {
		t.Sessions += r.Sessions
		t.Revenue += r.Revenue
		t.Orders += r.Orders
		t.NewCustomerOrders += r.NewCustomerOrders
		t.ReturningCustomerOrders += r.ReturningCustomerOrders
	}

	t.ConversionRate = safeDiv(float64(t.Orders), float64(t.Sessions))
	t.AverageOrderValue = safeDiv(t.Revenue, float64(t.Orders))

	return t
}

// RevenueShare is the channel's fraction of total revenue, clamped to [0,1].
// It is 0 when total revenue is not positive.
func RevenueShare(record gateway.ChannelRecord, totals ChannelTotals) float64 {
	if !(totals.Revenue > 0) {
		return 0
	}
	share := record.Revenue / totals.Revenue
	if math.IsNaN(share) {
		return 0
	}
	return math.Max(0, math.Min(1, share))
}
