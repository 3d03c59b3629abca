package scheduling

import (
	"context"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
)

// The engine reads and writes through these collaborators. All of them are
// scoped by company where the record belongs to the company aggregate.
// Implementations: store/sqlite, store/memory, store/cache.

// ShiftStore persists shifts.
type ShiftStore interface {
	ShiftsOnDate(ctx context.Context, companyID CompanyID, date generic.TimePoint) ([]Shift, error)
	ShiftsInRange(ctx context.Context, companyID CompanyID, from, to generic.TimePoint) ([]Shift, error)
	SaveShift(ctx context.Context, shift Shift) error
	// RemoveEmployee drops one assignment; the shift itself stays.
	RemoveEmployee(ctx context.Context, shiftID ShiftID, employeeID EmployeeID) error
}

// AbsenceStore persists absences.
type AbsenceStore interface {
	// AbsencesInRange returns absences whose period overlaps [from, to].
	AbsencesInRange(ctx context.Context, companyID CompanyID, from, to generic.TimePoint) ([]Absence, error)
	AbsencesForEmployee(ctx context.Context, employeeID EmployeeID) ([]Absence, error)
	UpdateAbsence(ctx context.Context, absence Absence) error
}

// ContractStore persists contracts. ContractFor returns nil, nil when the
// employee has no contract.
type ContractStore interface {
	ContractFor(ctx context.Context, employeeID EmployeeID) (*Contract, error)
	UpdateContract(ctx context.Context, contract Contract) error
}

// WeeklyShiftStore looks up publication records. Returns nil, nil when the
// week has no PUBLISHED record.
type WeeklyShiftStore interface {
	PublishedRecordForWeek(ctx context.Context, companyID CompanyID, weekStart generic.TimePoint) (*WeeklyShift, error)
}
