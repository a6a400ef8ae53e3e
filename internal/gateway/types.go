package gateway

import (
	"strings"

	"gestao/internal/timeframe"
)

// ChannelType classifies an acquisition channel
type ChannelType string

const (
	ChannelTypePaid    ChannelType = "paid"
	ChannelTypeEmail   ChannelType = "email"
	ChannelTypeUnknown ChannelType = "unknown"
)

// ParseChannelType normalizes anything unrecognised to ChannelTypeUnknown
func ParseChannelType(s string) ChannelType {
	switch ChannelType(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelTypePaid:
		return ChannelTypePaid
	case ChannelTypeEmail:
		return ChannelTypeEmail
	default:
		return ChannelTypeUnknown
	}
}

// KpiSet holds the authoritative headline figures for a period, displayed as received
type KpiSet struct {
	Revenue                 float64 `json:"revenue" yaml:"revenue"`
	Orders                  int64   `json:"orders" yaml:"orders"`
	AverageOrderValue       float64 `json:"average_order_value" yaml:"average_order_value"`
	Sessions                int64   `json:"sessions" yaml:"sessions"`
	ConversionRate          float64 `json:"conversion_rate" yaml:"conversion_rate"`
	NewCustomerOrders       int64   `json:"new_customer_orders" yaml:"new_customer_orders"`
	ReturningCustomerOrders int64   `json:"returning_customer_orders" yaml:"returning_customer_orders"`
}

// FunnelDailyRecord is one day of the purchase funnel
type FunnelDailyRecord struct {
	Date                    timeframe.Date `json:"date" yaml:"date"`
	Sessions                int64          `json:"sessions" yaml:"sessions"`
	SessionsWithCart        int64          `json:"sessions_with_cart" yaml:"sessions_with_cart"`
	SessionsReachedCheckout int64          `json:"sessions_reached_checkout" yaml:"sessions_reached_checkout"`
	ValidApprovedOrders     int64          `json:"valid_approved_orders" yaml:"valid_approved_orders"`
	ConversionRate          float64        `json:"conversion_rate" yaml:"conversion_rate"`
}

// ChannelRecord is the performance of one acquisition channel over a period
type ChannelRecord struct {
	Channel                 string      `json:"channel" yaml:"channel"`
	Type                    ChannelType `json:"type" yaml:"type"`
	Sessions                int64       `json:"sessions" yaml:"sessions"`
	Revenue                 float64     `json:"revenue" yaml:"revenue"`
	Orders                  int64       `json:"orders" yaml:"orders"`
	ConversionRate          float64     `json:"conversion_rate" yaml:"conversion_rate"`
	AverageOrderValue       float64     `json:"average_order_value" yaml:"average_order_value"`
	NewCustomerOrders       int64       `json:"new_customer_orders" yaml:"new_customer_orders"`
	ReturningCustomerOrders int64       `json:"returning_customer_orders" yaml:"returning_customer_orders"`
}

// PeriodResult is everything the metrics API reports for one closed date interval
type PeriodResult struct {
	Kpis        KpiSet              `json:"kpis" yaml:"kpis"`
	DailyFunnel []FunnelDailyRecord `json:"daily_funnel" yaml:"daily_funnel"`
	Channels    []ChannelRecord     `json:"channels" yaml:"channels"`
}

// Empty reports whether the API returned no data at all for the period
func (r *PeriodResult) Empty() bool {
	return r == nil || (r.Kpis == KpiSet{} && len(r.DailyFunnel) == 0 && len(r.Channels) == 0)
}
