// Package scheduling implements the shift scheduling and availability
// engine: who can work when, how absences consume contractual quotas,
// how sick leave is covered, and whether a week's plan is published.
package scheduling

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
)

type (
	CompanyID  string
	EmployeeID string
	ShiftID    string
	AbsenceID  string
)

// =============================================================================
// SHIFT
// =============================================================================

// Shift (turno) is a scheduled work slot for one or more employees.
type Shift struct {
	ID         ShiftID
	CompanyID  CompanyID
	Department string
	Date       generic.TimePoint
	Window     generic.TimeRange
	Employees  []EmployeeID // ordered; no duplicates
	Breaks     []Break
	Notes      []Note
}

type BreakType string

const (
	BreakMeal  BreakType = "meal"
	BreakRest  BreakType = "rest"
	BreakOther BreakType = "other"
)

type Break struct {
	Duration time.Duration
	Paid     bool
	Type     BreakType
}

type NoteType string

const (
	NoteGeneral  NoteType = "general"
	NoteTask     NoteType = "task"
	NoteCoverage NoteType = "coverage"
)

type Note struct {
	Type NoteType
	Text string
}

// Validate checks the shift invariants: a non-empty window and no employee
// listed twice.
func (s Shift) Validate() error {
	if !s.Window.IsValid() {
		return fmt.Errorf("shift %s %s: %w", s.ID, s.Window, generic.ErrInvalidTimeRange)
	}
	seen := make(map[EmployeeID]bool, len(s.Employees))
	for _, e := range s.Employees {
		if seen[e] {
			return fmt.Errorf("shift %s, employee %s: %w", s.ID, e, generic.ErrDuplicateAssignment)
		}
		seen[e] = true
	}
	return nil
}

// HasEmployee reports whether the employee is assigned to the shift.
func (s Shift) HasEmployee(id EmployeeID) bool {
	return s.indexOf(id) >= 0
}

func (s Shift) indexOf(id EmployeeID) int {
	for i, e := range s.Employees {
		if e == id {
			return i
		}
	}
	return -1
}

// WithoutEmployee returns a copy of the shift without id. The shift itself
// survives even when nobody is left on it.
func (s Shift) WithoutEmployee(id EmployeeID) Shift {
	out := s
	out.Employees = make([]EmployeeID, 0, len(s.Employees))
	for _, e := range s.Employees {
		if e != id {
			out.Employees = append(out.Employees, e)
		}
	}
	return out
}

// WithReplacement returns a copy of the shift with replacement in the
// position previously held by absent.
func (s Shift) WithReplacement(absent, replacement EmployeeID) (Shift, error) {
	i := s.indexOf(absent)
	if i < 0 {
		return s, fmt.Errorf("shift %s, employee %s: %w", s.ID, absent, generic.ErrNotAssigned)
	}
	if s.HasEmployee(replacement) {
		return s, fmt.Errorf("shift %s, employee %s: %w", s.ID, replacement, generic.ErrDuplicateAssignment)
	}
	out := s
	out.Employees = append([]EmployeeID(nil), s.Employees...)
	out.Employees[i] = replacement
	return out, nil
}

// =============================================================================
// ABSENCE
// =============================================================================

type AbsenceType string

const (
	AbsenceVacation      AbsenceType = "VACATION"
	AbsenceROL           AbsenceType = "ROL"
	AbsenceSickLeave     AbsenceType = "SICK_LEAVE"
	AbsencePersonalLeave AbsenceType = "PERSONAL_LEAVE"
	AbsenceUnpaidLeave   AbsenceType = "UNPAID_LEAVE"
	AbsenceStrike        AbsenceType = "STRIKE"
)

func (t AbsenceType) IsValid() bool {
	switch t {
	case AbsenceVacation, AbsenceROL, AbsenceSickLeave,
		AbsencePersonalLeave, AbsenceUnpaidLeave, AbsenceStrike:
		return true
	}
	return false
}

type AbsenceStatus string

const (
	AbsencePending  AbsenceStatus = "PENDING"
	AbsenceApproved AbsenceStatus = "APPROVED"
	AbsenceRejected AbsenceStatus = "REJECTED"
)

// Absence is a request to be away for a date range, optionally limited to
// a time window on each day.
type Absence struct {
	ID           AbsenceID
	EmployeeID   EmployeeID
	CompanyID    CompanyID
	Type         AbsenceType
	Period       generic.Period
	Window       *generic.TimeRange // nil = full day
	Status       AbsenceStatus
	TotalDays    generic.Amount
	TotalHours   generic.Amount
	ApproverID   string
	ApprovalDate *generic.TimePoint
	Comment      string
	CreatedAt    time.Time
}

func (a Absence) IsFullDay() bool { return a.Window == nil }

func (a Absence) IsPending() bool { return a.Status == AbsencePending }

// Covers reports whether the absence includes date.
func (a Absence) Covers(date generic.TimePoint) bool { return a.Period.Contains(date) }

// Blocks reports whether the absence makes its employee unavailable for
// window on date. Only approved absences block.
func (a Absence) Blocks(date generic.TimePoint, window generic.TimeRange) bool {
	if a.Status != AbsenceApproved || !a.Covers(date) {
		return false
	}
	if a.Window == nil {
		return true
	}
	return a.Window.Overlaps(window)
}

// NewAbsenceRequest builds a pending absence and computes its totals.
// Full days count 1 day and StandardWorkdayHours hours each; a partial day
// counts its window's hours and the matching fraction of a day.
func NewAbsenceRequest(
	id AbsenceID,
	companyID CompanyID,
	employeeID EmployeeID,
	absenceType AbsenceType,
	period generic.Period,
	window *generic.TimeRange,
	createdAt time.Time,
) (Absence, error) {
	if !absenceType.IsValid() {
		return Absence{}, fmt.Errorf("unknown absence type %q: %w", absenceType, generic.ErrNotApplicable)
	}
	if period.End.Before(period.Start) {
		return Absence{}, generic.ErrInvalidPeriod
	}
	if window != nil && !window.IsValid() {
		return Absence{}, generic.ErrInvalidTimeRange
	}

	days := period.Len()
	totalDays := generic.NewAmountFromInt(days, generic.UnitDays)
	totalHours := generic.NewAmountFromInt(days*generic.StandardWorkdayHours, generic.UnitHours)
	if window != nil {
		minutes := decimal.NewFromInt(int64(window.End-window.Start) * int64(days))
		totalHours = generic.Amount{Value: minutes.Div(decimal.NewFromInt(60)), Unit: generic.UnitHours}
		totalDays = generic.Amount{Value: minutes.Div(decimal.NewFromInt(60 * generic.StandardWorkdayHours)), Unit: generic.UnitDays}
	}

	return Absence{
		ID:         id,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Type:       absenceType,
		Period:     period,
		Window:     window,
		Status:     AbsencePending,
		TotalDays:  totalDays,
		TotalHours: totalHours,
		CreatedAt:  createdAt,
	}, nil
}

// =============================================================================
// CONTRACT
// =============================================================================

// Contract holds the CCNL-derived annual limits of an employee and the
// running totals used against them.
type Contract struct {
	EmployeeID EmployeeID
	CompanyID  CompanyID
	CCNL       string

	VacationDaysLimit generic.Amount // ferie annue
	ROLHoursLimit     generic.Amount
	PaidSickDaysLimit generic.Amount

	VacationDaysUsed generic.Amount // ferie usate
	ROLHoursUsed     generic.Amount // rol usate
	SickDaysUsed     generic.Amount // malattia usata
}

// Equal compares every limit and running total.
func (c Contract) Equal(other Contract) bool {
	return c.EmployeeID == other.EmployeeID &&
		c.CompanyID == other.CompanyID &&
		c.CCNL == other.CCNL &&
		c.VacationDaysLimit.Equal(other.VacationDaysLimit) &&
		c.ROLHoursLimit.Equal(other.ROLHoursLimit) &&
		c.PaidSickDaysLimit.Equal(other.PaidSickDaysLimit) &&
		c.VacationDaysUsed.Equal(other.VacationDaysUsed) &&
		c.ROLHoursUsed.Equal(other.ROLHoursUsed) &&
		c.SickDaysUsed.Equal(other.SickDaysUsed)
}

// =============================================================================
// WEEKLY SHIFT
// =============================================================================

type PublicationStatus string

const (
	StatusNotPublished PublicationStatus = "NOT_PUBLISHED"
	StatusDraft        PublicationStatus = "DRAFT"
	StatusPublished    PublicationStatus = "PUBLISHED"
)

// WeeklyShift is one publication event for a company's week. Records are
// appended, never deleted; the newest one for a week is its current state.
type WeeklyShift struct {
	ID        string
	CompanyID CompanyID
	WeekStart generic.TimePoint
	Status    PublicationStatus
	CreatedAt time.Time
}

// =============================================================================
// EMPLOYEE DAY STATE (derived)
// =============================================================================

// EmployeeDayState summarizes one employee's day. Computed on demand from
// shifts and approved absences; never stored.
type EmployeeDayState struct {
	EmployeeID     EmployeeID
	Date           generic.TimePoint
	FullyAbsent    bool
	AbsenceType    AbsenceType // set when FullyAbsent or PartialAbsence != nil
	AssignedShifts []ShiftID
	PartialAbsence *generic.TimeRange
}

func (s EmployeeDayState) IsAssigned() bool { return len(s.AssignedShifts) > 0 }
