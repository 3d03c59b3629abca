package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

// =============================================================================
// FAKE STORES - func fields, nil means "not expected to be called"
// =============================================================================

type fakeShiftStore struct {
	ShiftsOnDateFn   func(ctx context.Context, companyID scheduling.CompanyID, date generic.TimePoint) ([]scheduling.Shift, error)
	ShiftsInRangeFn  func(ctx context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Shift, error)
	SaveShiftFn      func(ctx context.Context, shift scheduling.Shift) error
	RemoveEmployeeFn func(ctx context.Context, shiftID scheduling.ShiftID, employeeID scheduling.EmployeeID) error
}

func (f *fakeShiftStore) ShiftsOnDate(ctx context.Context, companyID scheduling.CompanyID, date generic.TimePoint) ([]scheduling.Shift, error) {
	return f.ShiftsOnDateFn(ctx, companyID, date)
}

func (f *fakeShiftStore) ShiftsInRange(ctx context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Shift, error) {
	return f.ShiftsInRangeFn(ctx, companyID, from, to)
}

func (f *fakeShiftStore) SaveShift(ctx context.Context, shift scheduling.Shift) error {
	return f.SaveShiftFn(ctx, shift)
}

func (f *fakeShiftStore) RemoveEmployee(ctx context.Context, shiftID scheduling.ShiftID, employeeID scheduling.EmployeeID) error {
	return f.RemoveEmployeeFn(ctx, shiftID, employeeID)
}

type fakeAbsenceStore struct {
	AbsencesInRangeFn     func(ctx context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Absence, error)
	AbsencesForEmployeeFn func(ctx context.Context, employeeID scheduling.EmployeeID) ([]scheduling.Absence, error)
	UpdateAbsenceFn       func(ctx context.Context, absence scheduling.Absence) error
}

func (f *fakeAbsenceStore) AbsencesInRange(ctx context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Absence, error) {
	return f.AbsencesInRangeFn(ctx, companyID, from, to)
}

func (f *fakeAbsenceStore) AbsencesForEmployee(ctx context.Context, employeeID scheduling.EmployeeID) ([]scheduling.Absence, error) {
	return f.AbsencesForEmployeeFn(ctx, employeeID)
}

func (f *fakeAbsenceStore) UpdateAbsence(ctx context.Context, absence scheduling.Absence) error {
	return f.UpdateAbsenceFn(ctx, absence)
}

type fakeContractStore struct {
	ContractForFn    func(ctx context.Context, employeeID scheduling.EmployeeID) (*scheduling.Contract, error)
	UpdateContractFn func(ctx context.Context, contract scheduling.Contract) error
}

func (f *fakeContractStore) ContractFor(ctx context.Context, employeeID scheduling.EmployeeID) (*scheduling.Contract, error) {
	return f.ContractForFn(ctx, employeeID)
}

func (f *fakeContractStore) UpdateContract(ctx context.Context, contract scheduling.Contract) error {
	return f.UpdateContractFn(ctx, contract)
}

type fakeWeeklyShiftStore struct {
	PublishedRecordForWeekFn func(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error)
}

func (f *fakeWeeklyShiftStore) PublishedRecordForWeek(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	return f.PublishedRecordForWeekFn(ctx, companyID, weekStart)
}

// =============================================================================
// FIXTURES
// =============================================================================

const company scheduling.CompanyID = "acme"

// june10 is a Monday.
var june10 = generic.NewTimePoint(2024, time.June, 10)

func window(t *testing.T, start, end string) generic.TimeRange {
	t.Helper()
	r, err := generic.ParseTimeRange(start, end)
	require.NoError(t, err)
	return r
}

func shift(t *testing.T, id string, date generic.TimePoint, start, end string, employees ...scheduling.EmployeeID) scheduling.Shift {
	t.Helper()
	return scheduling.Shift{
		ID:        scheduling.ShiftID(id),
		CompanyID: company,
		Date:      date,
		Window:    window(t, start, end),
		Employees: employees,
	}
}

func approved(t *testing.T, id string, employee scheduling.EmployeeID, typ scheduling.AbsenceType, from, to generic.TimePoint, w *generic.TimeRange) scheduling.Absence {
	t.Helper()
	a := pending(t, id, employee, typ, from, to, w)
	a.Status = scheduling.AbsenceApproved
	return a
}

func pending(t *testing.T, id string, employee scheduling.EmployeeID, typ scheduling.AbsenceType, from, to generic.TimePoint, w *generic.TimeRange) scheduling.Absence {
	t.Helper()
	p, err := generic.NewPeriod(from, to)
	require.NoError(t, err)
	a, err := scheduling.NewAbsenceRequest(scheduling.AbsenceID(id), company, employee, typ, p, w, time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return a
}

func days(n float64) generic.Amount  { return generic.NewAmount(n, generic.UnitDays) }
func hours(n float64) generic.Amount { return generic.NewAmount(n, generic.UnitHours) }

func contract(employee scheduling.EmployeeID) scheduling.Contract {
	return scheduling.Contract{
		EmployeeID:        employee,
		CompanyID:         company,
		CCNL:              "commercio",
		VacationDaysLimit: days(20),
		ROLHoursLimit:     hours(72),
		PaidSickDaysLimit: days(180),
		VacationDaysUsed:  days(0),
		ROLHoursUsed:      hours(0),
		SickDaysUsed:      days(0),
	}
}
