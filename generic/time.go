package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a calendar day. The wrapped time is always midnight UTC so
// that two TimePoints for the same day compare equal.
type TimePoint struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day in t's location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint { return DateOf(time.Now()) }

// ParseTimePoint parses a YYYY-MM-DD date.
func ParseTimePoint(s string) (TimePoint, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return DateOf(tp.normalize().AddDate(0, 0, n)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) String() string        { return tp.Time.Format(dateLayout) }

// At combines the day with a clock time.
func (tp TimePoint) At(c ClockTime) time.Time {
	return tp.normalize().Add(time.Duration(c) * time.Minute)
}

func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// CLOCK TIME - Minutes since midnight
// =============================================================================

// ClockTime is a time of day with minute precision. 24:00 is accepted as
// the end of the day so a shift may close at midnight.
type ClockTime int

const (
	minutesPerDay           = 24 * 60
	EndOfDay      ClockTime = minutesPerDay
)

func NewClockTime(hour, minute int) ClockTime { return ClockTime(hour*60 + minute) }

// ParseClockTime parses HH:MM with two-digit fields. 24:00 is accepted as
// the end of the day.
func ParseClockTime(s string) (ClockTime, error) {
	if s == "24:00" {
		return EndOfDay, nil
	}
	if len(s) != len("15:04") {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// =============================================================================
// TIME RANGE - Half-open [Start, End) window within one day
// =============================================================================

type TimeRange struct {
	Start ClockTime
	End   ClockTime
}

func NewTimeRange(start, end ClockTime) TimeRange { return TimeRange{Start: start, End: end} }

// ParseTimeRange parses two HH:MM strings.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseClockTime(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseClockTime(end)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: s, End: e}, nil
}

// FullDay covers the whole calendar day.
func FullDay() TimeRange { return TimeRange{Start: 0, End: EndOfDay} }

// IsValid reports whether the window has positive length.
func (r TimeRange) IsValid() bool { return r.Start < r.End }

// Overlaps uses half-open semantics: windows that only touch do not overlap.
// The relation is symmetric.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return !(r.End <= other.Start || r.Start >= other.End)
}

func (r TimeRange) Duration() time.Duration {
	if !r.IsValid() {
		return 0
	}
	return time.Duration(r.End-r.Start) * time.Minute
}

func (r TimeRange) String() string { return r.Start.String() + "-" + r.End.String() }
