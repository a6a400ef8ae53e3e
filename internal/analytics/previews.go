package analytics

import (
	"gestao/internal/gateway"
)

const (
	DefaultRecentDays  = 7
	DefaultTopChannels = 5
)

// ChannelRow is a channel record decorated for display
type ChannelRow struct {
	gateway.ChannelRecord `yaml:",inline"`

	Key          string  `json:"key" yaml:"key"`
	RevenueShare float64 `json:"revenue_share" yaml:"revenue_share"`
}

// ChannelKey identifies a channel row by name and type
func ChannelKey(record gateway.ChannelRecord) string {
	return record.Channel + "__" + string(record.Type)
}

// RecentDays returns the last n daily records, oldest first
func RecentDays(records []gateway.FunnelDailyRecord, n int) []gateway.FunnelDailyRecord {
	if n <= 0 || len(records) == 0 {
		return []gateway.FunnelDailyRecord{}
	}
	if len(records) <= n {
		return append([]gateway.FunnelDailyRecord(nil), records...)
	}
	return append([]gateway.FunnelDailyRecord(nil), records[len(records)-n:]...)
}

// TopChannels returns the first n channels in the order the API ranked them
func TopChannels(records []gateway.ChannelRecord, n int) []gateway.ChannelRecord {
	if n <= 0 || len(records) == 0 {
		return []gateway.ChannelRecord{}
	}
	if len(records) > n {
		records = records[:n]
	}
	return append([]gateway.ChannelRecord(nil), records...)
}

// ChannelRows decorates records with their key and share of totals
func ChannelRows(records []gateway.ChannelRecord, totals ChannelTotals) []ChannelRow {
	rows := make([]ChannelRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ChannelRow{
			ChannelRecord: r,
			Key:           ChannelKey(r),
			RevenueShare:  RevenueShare(r, totals),
		})
	}
	return rows
}
