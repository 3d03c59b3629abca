package scheduling

import "github.com/GiuseppeRudi/BizSync-sub002/generic"

// =============================================================================
// QUOTA LEDGER - Absence types mapped onto CCNL contract quotas
// =============================================================================
//
//   VACATION    -> VacationDaysUsed += TotalDays
//   ROL         -> ROLHoursUsed     += TotalHours
//   SICK_LEAVE  -> SickDaysUsed     += TotalDays
//   others      -> untracked
//
// The ledger never refuses an over-quota absence. Exceeding a limit is a
// warning computed by CheckRequest.

// IsTracked reports whether the absence type counts against a contract quota.
func (t AbsenceType) IsTracked() bool {
	switch t {
	case AbsenceVacation, AbsenceROL, AbsenceSickLeave:
		return true
	}
	return false
}

// ApplyApprovedAbsence returns contract with the absence's usage added.
// Non-approved absences and untracked types return contract unchanged.
// Negative totals add nothing, so usage never decreases.
func ApplyApprovedAbsence(contract Contract, absence Absence) Contract {
	if absence.Status != AbsenceApproved {
		return contract
	}
	out := contract
	switch absence.Type {
	case AbsenceVacation:
		out.VacationDaysUsed = contract.VacationDaysUsed.Add(absence.TotalDays.NonNegative())
	case AbsenceROL:
		out.ROLHoursUsed = contract.ROLHoursUsed.Add(absence.TotalHours.NonNegative())
	case AbsenceSickLeave:
		out.SickDaysUsed = contract.SickDaysUsed.Add(absence.TotalDays.NonNegative())
	}
	return out
}

// QuotaFor returns the contract quota an absence type draws from.
func (c Contract) QuotaFor(t AbsenceType) (generic.Quota, bool) {
	switch t {
	case AbsenceVacation:
		return generic.Quota{Limit: c.VacationDaysLimit, Used: c.VacationDaysUsed}, true
	case AbsenceROL:
		return generic.Quota{Limit: c.ROLHoursLimit, Used: c.ROLHoursUsed}, true
	case AbsenceSickLeave:
		return generic.Quota{Limit: c.PaidSickDaysLimit, Used: c.SickDaysUsed}, true
	}
	return generic.Quota{}, false
}

// RequestedAmount is the quantity an absence consumes from its quota.
func RequestedAmount(a Absence) generic.Amount {
	if a.Type == AbsenceROL {
		return a.TotalHours
	}
	return a.TotalDays
}

// CheckRequest projects the absence onto its quota. The second result is
// false for untracked absence types.
func CheckRequest(contract Contract, absence Absence) (generic.QuotaProjection, bool) {
	q, ok := contract.QuotaFor(absence.Type)
	if !ok {
		return generic.QuotaProjection{}, false
	}
	return q.Project(RequestedAmount(absence).NonNegative()), true
}

// QuotaSummary lists the remaining balance of every tracked quota.
type QuotaSummary struct {
	Vacation generic.Quota
	ROL      generic.Quota
	Sick     generic.Quota
}

func (c Contract) Summary() QuotaSummary {
	v, _ := c.QuotaFor(AbsenceVacation)
	r, _ := c.QuotaFor(AbsenceROL)
	s, _ := c.QuotaFor(AbsenceSickLeave)
	return QuotaSummary{Vacation: v, ROL: r, Sick: s}
}
