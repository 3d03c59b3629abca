// Package memory provides an in-memory implementation of the scheduling
// stores, for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	shifts    map[scheduling.ShiftID]scheduling.Shift
	absences  map[scheduling.AbsenceID]scheduling.Absence
	contracts map[scheduling.EmployeeID]scheduling.Contract
	weeks     []scheduling.WeeklyShift // append-only
	audit     []generic.AuditEntry
}

func NewMemory() *Memory {
	m := &Memory{}
	m.init()
	return m
}

func (m *Memory) init() {
	m.shifts = make(map[scheduling.ShiftID]scheduling.Shift)
	m.absences = make(map[scheduling.AbsenceID]scheduling.Absence)
	m.contracts = make(map[scheduling.EmployeeID]scheduling.Contract)
	m.weeks = nil
	m.audit = nil
}

// Reset drops every record.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (m *Memory) ShiftsOnDate(_ context.Context, companyID scheduling.CompanyID, date generic.TimePoint) ([]scheduling.Shift, error) {
	return m.filterShifts(companyID, generic.SingleDay(date)), nil
}

func (m *Memory) ShiftsInRange(_ context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Shift, error) {
	return m.filterShifts(companyID, generic.Period{Start: from, End: to}), nil
}

func (m *Memory) filterShifts(companyID scheduling.CompanyID, p generic.Period) []scheduling.Shift {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []scheduling.Shift
	for _, s := range m.shifts {
		if s.CompanyID == companyID && p.Contains(s.Date) {
			out = append(out, cloneShift(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Window.Start != out[j].Window.Start {
			return out[i].Window.Start < out[j].Window.Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) SaveShift(_ context.Context, shift scheduling.Shift) error {
	if err := shift.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[shift.ID] = cloneShift(shift)
	return nil
}

func (m *Memory) GetShift(_ context.Context, id scheduling.ShiftID) (*scheduling.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, nil
	}
	c := cloneShift(s)
	return &c, nil
}

func (m *Memory) RemoveEmployee(_ context.Context, shiftID scheduling.ShiftID, employeeID scheduling.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[shiftID]
	if !ok {
		return fmt.Errorf("shift %s: %w", shiftID, generic.ErrNotFound)
	}
	m.shifts[shiftID] = s.WithoutEmployee(employeeID)
	return nil
}

func cloneShift(s scheduling.Shift) scheduling.Shift {
	s.Employees = append([]scheduling.EmployeeID(nil), s.Employees...)
	s.Breaks = append([]scheduling.Break(nil), s.Breaks...)
	s.Notes = append([]scheduling.Note(nil), s.Notes...)
	return s
}

// =============================================================================
// ABSENCES
// =============================================================================

func (m *Memory) AbsencesInRange(_ context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := generic.Period{Start: from, End: to}
	var out []scheduling.Absence
	for _, a := range m.absences {
		if a.CompanyID == companyID && a.Period.Overlaps(p) {
			out = append(out, a)
		}
	}
	sortAbsences(out)
	return out, nil
}

func (m *Memory) AbsencesForEmployee(_ context.Context, employeeID scheduling.EmployeeID) ([]scheduling.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []scheduling.Absence
	for _, a := range m.absences {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	sortAbsences(out)
	return out, nil
}

func (m *Memory) SaveAbsence(_ context.Context, absence scheduling.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absences[absence.ID] = absence
	return nil
}

func (m *Memory) UpdateAbsence(_ context.Context, absence scheduling.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.absences[absence.ID]; !ok {
		return fmt.Errorf("absence %s: %w", absence.ID, generic.ErrNotFound)
	}
	m.absences[absence.ID] = absence
	return nil
}

func (m *Memory) GetAbsence(_ context.Context, id scheduling.AbsenceID) (*scheduling.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.absences[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func sortAbsences(as []scheduling.Absence) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].Period.Start.Equal(as[j].Period.Start) {
			return as[i].Period.Start.Before(as[j].Period.Start)
		}
		return as[i].ID < as[j].ID
	})
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (m *Memory) ContractFor(_ context.Context, employeeID scheduling.EmployeeID) (*scheduling.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[employeeID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) UpdateContract(_ context.Context, contract scheduling.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[contract.EmployeeID] = contract
	return nil
}

func (m *Memory) ContractsForCompany(_ context.Context, companyID scheduling.CompanyID) ([]scheduling.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []scheduling.Contract
	for _, c := range m.contracts {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// =============================================================================
// WEEKLY SHIFTS - append-only
// =============================================================================

func (m *Memory) SaveWeeklyShift(_ context.Context, ws scheduling.WeeklyShift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weeks = append(m.weeks, ws)
	return nil
}

// LatestWeeklyShift returns the newest record for the week, nil if none.
func (m *Memory) LatestWeeklyShift(_ context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.weeks) - 1; i >= 0; i-- {
		ws := m.weeks[i]
		if ws.CompanyID == companyID && ws.WeekStart.Equal(weekStart) {
			return &ws, nil
		}
	}
	return nil, nil
}

func (m *Memory) PublishedRecordForWeek(_ context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ws := range m.weeks {
		if ws.CompanyID == companyID && ws.WeekStart.Equal(weekStart) && ws.Status == scheduling.StatusPublished {
			return &ws, nil
		}
	}
	return nil, nil
}

// ListCompanies returns every company that owns a shift, contract or week.
func (m *Memory) ListCompanies(_ context.Context) ([]scheduling.CompanyID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := make(map[scheduling.CompanyID]bool)
	for _, s := range m.shifts {
		set[s.CompanyID] = true
	}
	for _, c := range m.contracts {
		set[c.CompanyID] = true
	}
	for _, w := range m.weeks {
		set[w.CompanyID] = true
	}
	out := make([]scheduling.CompanyID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) Append(_ context.Context, entry generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) Query(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []generic.AuditEntry
	for _, e := range m.audit {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
