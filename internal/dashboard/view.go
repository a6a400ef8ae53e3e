package dashboard

import (
	"time"

	"gestao/internal/analytics"
	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

// View is the read model handed to the presentation layer
type View struct {
	Status        Status               `json:"status" yaml:"status"`
	CycleID       string               `json:"cycle_id,omitempty" yaml:"cycle_id,omitempty"`
	Error         string               `json:"error,omitempty" yaml:"error,omitempty"`
	SelectedRange *timeframe.DateRange `json:"selected_range,omitempty" yaml:"selected_range,omitempty"`
	ActivePreset  timeframe.RangeLabel `json:"active_preset,omitempty" yaml:"active_preset,omitempty"`
	UpdatedAt     time.Time            `json:"updated_at" yaml:"updated_at"`

	// Data is nil until a cycle has succeeded
	Data *DataView `json:"data,omitempty" yaml:"data,omitempty"`
}

// DataView is the published outcome reduced for display
type DataView struct {
	Range           timeframe.DateRange `json:"range" yaml:"range"`
	ComparisonRange timeframe.DateRange `json:"comparison_range" yaml:"comparison_range"`
	HasComparison   bool                `json:"has_comparison" yaml:"has_comparison"`

	Kpis      gateway.KpiSet       `json:"kpis" yaml:"kpis"`
	KpiDeltas analytics.Comparison `json:"kpi_deltas" yaml:"kpi_deltas"`

	Funnel       analytics.FunnelTotals `json:"funnel" yaml:"funnel"`
	FunnelDeltas analytics.Comparison   `json:"funnel_deltas" yaml:"funnel_deltas"`

	Channels    analytics.ChannelTotals     `json:"channels" yaml:"channels"`
	RecentDays  []gateway.FunnelDailyRecord `json:"recent_days" yaml:"recent_days"`
	TopChannels []analytics.ChannelRow      `json:"top_channels" yaml:"top_channels"`

	DailyFunnel    []gateway.FunnelDailyRecord `json:"daily_funnel" yaml:"daily_funnel"`
	ChannelDetails []analytics.ChannelRow      `json:"channel_details" yaml:"channel_details"`
}

// NewView builds the presentation model for state. today resolves the active preset.
func NewView(state State, today timeframe.Date) View {
	view := View{
		Status:        state.Status,
		CycleID:       state.CycleID,
		Error:         state.Error,
		SelectedRange: state.Range,
		UpdatedAt:     state.UpdatedAt,
	}
	if state.Range != nil {
		view.ActivePreset = timeframe.ActivePreset(*state.Range, today)
	}
	if state.Outcome != nil {
		view.Data = NewDataView(state.Outcome)
	}
	return view
}

func NewDataView(outcome *ComparisonOutcome) *DataView {
	channelTotals := outcome.ChannelTotals()
	daily := outcome.Current.DailyFunnel
	if daily == nil {
		daily = []gateway.FunnelDailyRecord{}
	}

	return &DataView{
		Range:           outcome.Range,
		ComparisonRange: outcome.ComparisonRange,
		HasComparison:   outcome.HasComparison(),
		Kpis:            outcome.Current.Kpis,
		KpiDeltas:       outcome.KpiComparison(),
		Funnel:          outcome.FunnelTotals(),
		FunnelDeltas:    outcome.FunnelComparison(),
		Channels:        channelTotals,
		RecentDays:      analytics.RecentDays(daily, analytics.DefaultRecentDays),
		TopChannels:     analytics.ChannelRows(analytics.TopChannels(outcome.Current.Channels, analytics.DefaultTopChannels), channelTotals),
		DailyFunnel:     daily,
		ChannelDetails:  analytics.ChannelRows(outcome.Current.Channels, channelTotals),
	}
}
