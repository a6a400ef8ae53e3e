package timeframe

import (
	"fmt"
)

// DefaultHistoryMonths is how far back the selectable window reaches
const DefaultHistoryMonths = 12

type RangeParserParams struct {
	FromDate string `json:"start" query:"start"`
	ToDate   string `json:"end" query:"end"`
	Preset   string `json:"preset" query:"preset"`
}

// RangeParser turns user input (query params, CLI flags) into a bounded DateRange
type RangeParser struct {
	clock         *Clock
	historyMonths int
}

func NewRangeParser(clock *Clock, historyMonths int) *RangeParser {
	if historyMonths <= 0 {
		historyMonths = DefaultHistoryMonths
	}
	return &RangeParser{
		clock:         clock,
		historyMonths: historyMonths,
	}
}

func (p *RangeParser) Today() Date {
	return p.clock.Today()
}

// Bounds is the currently selectable window
func (p *RangeParser) Bounds() DateRange {
	return Bounds(p.clock.Today(), p.historyMonths)
}

// Parse resolves params into a range. A preset wins over explicit dates; with neither,
// the month-to-date preset is used.
func (p *RangeParser) Parse(params RangeParserParams) (DateRange, error) {
	today := p.clock.Today()

	if params.Preset != "" {
		r, err := PresetRange(RangeLabel(params.Preset), today)
		if err != nil {
			return DateRange{}, err
		}
		return p.NormalizeRange(&r.Start, &r.End)
	}

	if params.FromDate == "" && params.ToDate == "" {
		r, _ := PresetRange(RangeLabelMonthToDate, today)
		return r, nil
	}

	var start, end *Date
	if params.FromDate != "" {
		d, err := ParseDate(params.FromDate)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid 'start' date: %w", err)
		}
		start = &d
	}
	if params.ToDate != "" {
		d, err := ParseDate(params.ToDate)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid 'end' date: %w", err)
		}
		end = &d
	}

	return p.NormalizeRange(start, end)
}

// NormalizeRange applies the date filter rules: a missing bound takes the value of the other,
// start after end is rejected and the result is clamped into Bounds.
func (p *RangeParser) NormalizeRange(start, end *Date) (DateRange, error) {
	switch {
	case start == nil && end == nil:
		return DateRange{}, fmt.Errorf("date range requires at least one bound")
	case start == nil:
		start = end
	case end == nil:
		end = start
	}

	r, err := NewDateRange(*start, *end)
	if err != nil {
		return DateRange{}, err
	}

	return Clamp(r, p.Bounds())
}
