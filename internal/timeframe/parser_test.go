package timeframe_test

import (
	"testing"
	"time"

	"gestao/internal/timeframe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *timeframe.RangeParser {
	t.Helper()
	// March 15, 2024, 12:00 UTC is 09:00 in Sao Paulo
	provider := &MockTimeProvider{FixedTime: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	clock, err := timeframe.NewClock(timeframe.DefaultTimezone, provider)
	require.NoError(t, err)
	return timeframe.NewRangeParser(clock, 12)
}

func TestRangeParser(t *testing.T) {
	parser := newTestParser(t)

	testCases := []struct {
		name          string
		params        timeframe.RangeParserParams
		expected      timeframe.DateRange
		expectedError error
		anyError      bool
	}{
		{
			name:     "defaults to month to date",
			params:   timeframe.RangeParserParams{},
			expected: timeframe.MustRange("2024-03-01", "2024-03-15"),
		},
		{
			name:     "explicit range",
			params:   timeframe.RangeParserParams{FromDate: "2024-03-01", ToDate: "2024-03-10"},
			expected: timeframe.MustRange("2024-03-01", "2024-03-10"),
		},
		{
			name:     "missing end takes start",
			params:   timeframe.RangeParserParams{FromDate: "2024-03-05"},
			expected: timeframe.MustRange("2024-03-05", "2024-03-05"),
		},
		{
			name:     "missing start takes end",
			params:   timeframe.RangeParserParams{ToDate: "2024-03-05"},
			expected: timeframe.MustRange("2024-03-05", "2024-03-05"),
		},
		{
			name:     "preset wins over dates",
			params:   timeframe.RangeParserParams{FromDate: "2024-03-01", ToDate: "2024-03-02", Preset: "7d"},
			expected: timeframe.MustRange("2024-03-09", "2024-03-15"),
		},
		{
			name:     "future end is clamped to today",
			params:   timeframe.RangeParserParams{FromDate: "2024-03-10", ToDate: "2024-04-10"},
			expected: timeframe.MustRange("2024-03-10", "2024-03-15"),
		},
		{
			name:     "old start is clamped to the history window",
			params:   timeframe.RangeParserParams{FromDate: "2022-01-01", ToDate: "2023-03-05"},
			expected: timeframe.MustRange("2023-03-01", "2023-03-05"),
		},
		{
			name:          "start after end",
			params:        timeframe.RangeParserParams{FromDate: "2024-03-10", ToDate: "2024-03-01"},
			expectedError: timeframe.ErrInvalidRange,
		},
		{
			name:          "entirely in the future",
			params:        timeframe.RangeParserParams{FromDate: "2024-04-01", ToDate: "2024-04-10"},
			expectedError: timeframe.ErrOutOfBounds,
		},
		{
			name:     "malformed date",
			params:   timeframe.RangeParserParams{FromDate: "15/03/2024"},
			anyError: true,
		},
		{
			name:     "unknown preset",
			params:   timeframe.RangeParserParams{Preset: "90d"},
			anyError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := parser.Parse(tc.params)
			switch {
			case tc.expectedError != nil:
				assert.ErrorIs(t, err, tc.expectedError)
			case tc.anyError:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, r)
			}
		})
	}
}

func TestNormalizeRangeRequiresABound(t *testing.T) {
	parser := newTestParser(t)
	_, err := parser.NormalizeRange(nil, nil)
	assert.Error(t, err)
}
