package timeframe

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when a range starts after it ends
	ErrInvalidRange = errors.New("start date must not be after end date")
	// ErrOutOfBounds is returned when a range lies entirely outside the allowed window
	ErrOutOfBounds = errors.New("date range is outside the available history")
)

const hoursPerDay = 24

// DateRange is a closed, inclusive range of calendar days
type DateRange struct {
	Start Date `json:"start" yaml:"start"`
	End   Date `json:"end" yaml:"end"`
}

// NewDateRange validates and builds a range
func NewDateRange(start, end Date) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// MustRange builds a range from two YYYY-MM-DD literals
func MustRange(start, end string) DateRange {
	r, err := NewDateRange(MustParseDate(start), MustParseDate(end))
	if err != nil {
		panic(err)
	}
	return r
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range requires both start and end")
	}
	if r.Start.After(r.End) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether d falls inside the range, bounds included
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Key is a stable identifier for the range, used as a cache key
func (r DateRange) Key() string {
	return r.Start.String() + ".." + r.End.String()
}

func (r DateRange) String() string {
	return r.Key()
}

// DaysBetween returns the signed number of calendar days from a to b
func DaysBetween(a, b Date) int {
	return int(b.midnightUTC().Sub(a.midnightUTC()).Hours() / hoursPerDay)
}

// InclusiveDayCount is the number of calendar days spanned by r, both ends included.
// It is at least 1 for any valid range.
func InclusiveDayCount(r DateRange) int {
	return DaysBetween(r.Start, r.End) + 1
}

// OffsetDays moves d by n calendar days, rolling over months and years
func OffsetDays(d Date, n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

// PreviousPeriod returns the equal-length range immediately preceding r.
// It is not calendar aligned: a month-to-date range compares against the prior N days.
func PreviousPeriod(r DateRange) DateRange {
	length := InclusiveDayCount(r)
	return DateRange{
		Start: OffsetDays(r.Start, -length),
		End:   OffsetDays(r.End, -length),
	}
}

// Clamp restricts r to bounds. A range that does not overlap bounds at all yields ErrOutOfBounds.
func Clamp(r DateRange, bounds DateRange) (DateRange, error) {
	start, end := r.Start, r.End
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if start.After(end) {
		return DateRange{}, ErrOutOfBounds
	}
	return DateRange{Start: start, End: end}, nil
}

// Bounds is the selectable window: from the first day of the month historyMonths ago up to today
func Bounds(today Date, historyMonths int) DateRange {
	first := time.Date(today.Year, today.Month-time.Month(historyMonths), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: DateOf(first), End: today}
}
