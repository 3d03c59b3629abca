package generic

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is an inclusive [Start, End] range of days.
//
// Examples:
//   - A week: Monday - Sunday
//   - An absence: 2024-06-10 - 2024-06-14
type Period struct {
	Start TimePoint
	End   TimePoint
}

func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// SingleDay is the period containing only day.
func SingleDay(day TimePoint) Period { return Period{Start: day, End: day} }

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether two inclusive periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !(p.End.Before(other.Start) || p.Start.After(other.End))
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the number of days in the period, 0 for an inverted period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WEEK WINDOWS - Monday-based weeks and the publication cycle
// =============================================================================

// WeekBounds returns the Monday-Sunday window containing date.
func WeekBounds(date TimePoint) (weekStart, weekEnd TimePoint) {
	// time.Sunday is 0; shift so Monday is 0.
	offset := (int(date.Weekday()) + 6) % 7
	weekStart = date.AddDays(-offset)
	return weekStart, weekStart.AddDays(6)
}

// Week returns WeekBounds as a Period.
func Week(date TimePoint) Period {
	start, end := WeekBounds(date)
	return Period{Start: start, End: end}
}

// DaysUntilNextPublicationDay returns how many days remain until the next
// publicationDay, today included. The result is always in [0, 6].
func DaysUntilNextPublicationDay(today TimePoint, publicationDay time.Weekday) int {
	return (int(publicationDay) - int(today.Weekday()) + 7) % 7
}

// ReferenceWeekStart returns the Monday of the week whose plan is due at
// the next publication day: plans are released the week before they apply.
func ReferenceWeekStart(today TimePoint, publicationDay time.Weekday) TimePoint {
	due := today.AddDays(DaysUntilNextPublicationDay(today, publicationDay))
	weekStart, _ := WeekBounds(due)
	return weekStart.AddDays(7)
}
