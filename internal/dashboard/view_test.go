package dashboard_test

import (
	"encoding/json"
	"testing"
	"time"

	"gestao/internal/analytics"
	"gestao/internal/dashboard"
	"gestao/internal/testsupport"
	"gestao/internal/timeframe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewIdle(t *testing.T) {
	view := dashboard.NewView(dashboard.State{Status: dashboard.StatusIdle}, timeframe.MustParseDate("2024-03-10"))
	assert.Equal(t, dashboard.StatusIdle, view.Status)
	assert.Nil(t, view.Data)
	assert.Empty(t, view.ActivePreset)
}

func TestNewViewReady(t *testing.T) {
	current := testsupport.SampleResult(march, 100)
	for i := 0; i < 4; i++ {
		current.Channels = append(current.Channels, current.Channels[0])
	}

	outcome := &dashboard.ComparisonOutcome{
		Range:           march,
		Current:         current,
		Comparison:      testsupport.SampleResult(february, 50),
		ComparisonRange: february,
	}
	selected := march
	state := dashboard.State{
		Status:    dashboard.StatusReady,
		CycleID:   "cycle-1",
		Range:     &selected,
		Outcome:   outcome,
		UpdatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	view := dashboard.NewView(state, timeframe.MustParseDate("2024-03-10"))
	assert.Equal(t, timeframe.RangeLabelMonthToDate, view.ActivePreset)
	require.NotNil(t, view.Data)

	data := view.Data
	assert.True(t, data.HasComparison)
	assert.Equal(t, february, data.ComparisonRange)
	assert.Len(t, data.RecentDays, analytics.DefaultRecentDays)
	assert.Equal(t, timeframe.MustParseDate("2024-03-10"), data.RecentDays[6].Date)
	assert.Len(t, data.TopChannels, analytics.DefaultTopChannels)
	assert.Len(t, data.ChannelDetails, 6)
	assert.Equal(t, "google__paid", data.TopChannels[0].Key)

	d, ok := data.KpiDeltas.Get(analytics.MetricSessions)
	require.True(t, ok)
	assert.Equal(t, analytics.DirectionUp, d.Direction)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"active_preset":"mtd"`)
	assert.Contains(t, string(raw), `"comparison_range":{"start":"2024-02-19","end":"2024-02-28"}`)
}

func TestNewViewKeepsDataWhileFailed(t *testing.T) {
	outcome := &dashboard.ComparisonOutcome{Range: march, Current: testsupport.KpiResult(10, 1, 10), ComparisonRange: february}
	state := dashboard.State{Status: dashboard.StatusFailed, Error: "503", Outcome: outcome}

	view := dashboard.NewView(state, timeframe.MustParseDate("2024-03-10"))
	assert.Equal(t, "503", view.Error)
	require.NotNil(t, view.Data)
	assert.False(t, view.Data.HasComparison)
	assert.Empty(t, view.Data.KpiDeltas)
}
