package timeframe

import (
	"fmt"
	"time"
)

// DefaultTimezone is the reference zone in which "today" is resolved
const DefaultTimezone = "America/Sao_Paulo"

// RangeLabel identifies a preset range
type RangeLabel string

const (
	RangeLabelToday       RangeLabel = "today"
	RangeLabelYesterday   RangeLabel = "yesterday"
	RangeLabelLast7Days   RangeLabel = "7d"
	RangeLabelLast30Days  RangeLabel = "30d"
	RangeLabelMonthToDate RangeLabel = "mtd"
	RangeLabelCustom      RangeLabel = "custom"
)

// Preset is a named range computed relative to today
type Preset struct {
	Label RangeLabel `json:"id" yaml:"id"`
	Title string     `json:"label" yaml:"label"`
	Range DateRange  `json:"range" yaml:"range"`
}

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider reads the system clock
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// Clock resolves the canonical "today" in a fixed reference timezone,
// independent of the process's local zone.
type Clock struct {
	provider TimeProvider
	loc      *time.Location
}

// NewClock loads tz and wraps provider. A nil provider uses the system clock.
func NewClock(tz string, provider TimeProvider) (*Clock, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone: %w", err)
	}
	if provider == nil {
		provider = &DefaultTimeProvider{}
	}
	return &Clock{provider: provider, loc: loc}, nil
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// Today is the calendar date in the reference timezone
func (c *Clock) Today() Date {
	return DateOf(c.provider.Now(c.loc))
}

// Presets lists the preset ranges relative to today, in display order
func Presets(today Date) []Preset {
	yesterday := OffsetDays(today, -1)
	return []Preset{
		{Label: RangeLabelToday, Title: "Hoje", Range: DateRange{Start: today, End: today}},
		{Label: RangeLabelYesterday, Title: "Ontem", Range: DateRange{Start: yesterday, End: yesterday}},
		{Label: RangeLabelLast7Days, Title: "7d", Range: DateRange{Start: OffsetDays(today, -6), End: today}},
		{Label: RangeLabelLast30Days, Title: "30d", Range: DateRange{Start: OffsetDays(today, -29), End: today}},
		{Label: RangeLabelMonthToDate, Title: "MTD", Range: DateRange{Start: today.FirstOfMonth(), End: today}},
	}
}

// PresetRange resolves a preset label against today
func PresetRange(label RangeLabel, today Date) (DateRange, error) {
	for _, p := range Presets(today) {
		if p.Label == label {
			return p.Range, nil
		}
	}
	return DateRange{}, fmt.Errorf("unknown preset: %s", label)
}

// ActivePreset returns the label of the first preset equal to r, or RangeLabelCustom
func ActivePreset(r DateRange, today Date) RangeLabel {
	for _, p := range Presets(today) {
		if p.Range == r {
			return p.Label
		}
	}
	return RangeLabelCustom
}
