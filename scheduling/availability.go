package scheduling

import (
	"context"
	"fmt"
	"sort"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
)

// =============================================================================
// AVAILABILITY CHECKER
// =============================================================================

// AvailabilityChecker decides whether employees are free for a time window.
//
// An employee is unavailable when:
//   - one of their shifts that day overlaps the window (half-open), or
//   - an APPROVED absence covers the day: full-day absences always block,
//     partial-day absences only when their window overlaps.
//
// PENDING absences never block; a tentative request must not freeze the
// roster.
type AvailabilityChecker struct {
	Shifts   ShiftStore
	Absences AbsenceStore
}

func NewAvailabilityChecker(shifts ShiftStore, absences AbsenceStore) *AvailabilityChecker {
	return &AvailabilityChecker{Shifts: shifts, Absences: absences}
}

// IsAvailable reports whether employeeID is free on date for window.
// Empty or inverted windows are never available and produce no error.
func (ac *AvailabilityChecker) IsAvailable(
	ctx context.Context,
	companyID CompanyID,
	employeeID EmployeeID,
	date generic.TimePoint,
	window generic.TimeRange,
) (bool, error) {
	if !window.IsValid() {
		return false, nil
	}
	day, err := ac.loadDay(ctx, companyID, date)
	if err != nil {
		return false, err
	}
	return day.isAvailable(employeeID, window), nil
}

// AvailableReplacements returns the members of pool that could take over
// shift: not already on it and free for its window. Order follows pool.
func (ac *AvailabilityChecker) AvailableReplacements(
	ctx context.Context,
	shift Shift,
	pool []EmployeeID,
) ([]EmployeeID, error) {
	if !shift.Window.IsValid() {
		return nil, nil
	}
	day, err := ac.loadDay(ctx, shift.CompanyID, shift.Date)
	if err != nil {
		return nil, err
	}

	var out []EmployeeID
	seen := make(map[EmployeeID]bool, len(pool))
	for _, e := range pool {
		if seen[e] || shift.HasEmployee(e) {
			continue
		}
		seen[e] = true
		if day.isAvailable(e, shift.Window) {
			out = append(out, e)
		}
	}
	return out, nil
}

// AssignmentConflicts returns the members of employees who cannot work
// shift. The stored version of shift itself is ignored so a shift can be
// re-saved. pending holds edited shifts not yet persisted; they replace
// their stored versions with the same ID.
func (ac *AvailabilityChecker) AssignmentConflicts(
	ctx context.Context,
	shift Shift,
	employees []EmployeeID,
	pending []Shift,
) ([]EmployeeID, error) {
	if !shift.Window.IsValid() {
		return append([]EmployeeID(nil), employees...), nil
	}
	day, err := ac.loadDay(ctx, shift.CompanyID, shift.Date)
	if err != nil {
		return nil, err
	}
	day.overlay(shift.ID, pending)

	var out []EmployeeID
	for _, e := range employees {
		if !day.isAvailable(e, shift.Window) {
			out = append(out, e)
		}
	}
	return out, nil
}

// DayStates derives the EmployeeDayState of each employee on date.
func (ac *AvailabilityChecker) DayStates(
	ctx context.Context,
	companyID CompanyID,
	date generic.TimePoint,
	employees []EmployeeID,
) ([]EmployeeDayState, error) {
	day, err := ac.loadDay(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	states := make([]EmployeeDayState, 0, len(employees))
	for _, e := range employees {
		states = append(states, day.state(e))
	}
	return states, nil
}

// =============================================================================
// DAY SCHEDULE - Shifts and approved absences of one day, loaded once
// =============================================================================

type daySchedule struct {
	date     generic.TimePoint
	shifts   []Shift
	absences []Absence // approved, covering date
}

func (ac *AvailabilityChecker) loadDay(ctx context.Context, companyID CompanyID, date generic.TimePoint) (*daySchedule, error) {
	shifts, err := ac.Shifts.ShiftsOnDate(ctx, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts on %s: %w", date, err)
	}
	absences, err := ac.Absences.AbsencesInRange(ctx, companyID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load absences on %s: %w", date, err)
	}

	day := &daySchedule{date: date}
	for _, s := range shifts {
		if s.Date.Equal(date) {
			day.shifts = append(day.shifts, s)
		}
	}
	for _, a := range absences {
		if a.Status == AbsenceApproved && a.Covers(date) {
			day.absences = append(day.absences, a)
		}
	}
	return day, nil
}

// overlay swaps in pending edits for that day and drops the shift with
// ID skip.
func (d *daySchedule) overlay(skip ShiftID, pending []Shift) {
	edits := make(map[ShiftID]Shift, len(pending))
	for _, p := range pending {
		if p.Date.Equal(d.date) {
			edits[p.ID] = p
		}
	}
	shifts := make([]Shift, 0, len(d.shifts)+len(edits))
	for _, s := range d.shifts {
		if s.ID == skip {
			continue
		}
		if p, ok := edits[s.ID]; ok {
			s = p
			delete(edits, s.ID)
		}
		shifts = append(shifts, s)
	}
	for _, p := range pending {
		if e, ok := edits[p.ID]; ok && p.ID != skip {
			shifts = append(shifts, e)
			delete(edits, p.ID)
		}
	}
	d.shifts = shifts
}

func (d *daySchedule) isAvailable(employeeID EmployeeID, window generic.TimeRange) bool {
	if !window.IsValid() {
		return false
	}
	for _, s := range d.shifts {
		if s.HasEmployee(employeeID) && s.Window.Overlaps(window) {
			return false
		}
	}
	for _, a := range d.absences {
		if a.EmployeeID == employeeID && a.Blocks(d.date, window) {
			return false
		}
	}
	return true
}

func (d *daySchedule) state(employeeID EmployeeID) EmployeeDayState {
	st := EmployeeDayState{EmployeeID: employeeID, Date: d.date}

	var assigned []Shift
	for _, s := range d.shifts {
		if s.HasEmployee(employeeID) {
			assigned = append(assigned, s)
		}
	}
	sort.Slice(assigned, func(i, j int) bool { return assigned[i].Window.Start < assigned[j].Window.Start })
	for _, s := range assigned {
		st.AssignedShifts = append(st.AssignedShifts, s.ID)
	}

	for _, a := range d.absences {
		if a.EmployeeID != employeeID {
			continue
		}
		if a.IsFullDay() {
			st.FullyAbsent = true
			st.AbsenceType = a.Type
			st.PartialAbsence = nil
			break
		}
		if st.PartialAbsence == nil {
			w := *a.Window
			st.PartialAbsence = &w
			st.AbsenceType = a.Type
		}
	}
	return st
}
