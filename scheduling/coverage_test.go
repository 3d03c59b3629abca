package scheduling_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
	"github.com/GiuseppeRudi/BizSync-sub002/store/memory"
)

// coverageFixture: E is sick Mon-Wed and holds three shifts in that range,
// plus one on Thursday outside the absence.
func coverageFixture(t *testing.T) (*memory.Memory, *scheduling.CoverageResolver, scheduling.Absence) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewMemory()
	for _, s := range []scheduling.Shift{
		shift(t, "wed", june10.AddDays(2), "09:00", "13:00", "E", "F"),
		shift(t, "mon-pm", june10, "14:00", "18:00", "E"),
		shift(t, "mon-am", june10, "08:00", "12:00", "F", "E"),
		shift(t, "thu", june10.AddDays(3), "09:00", "13:00", "E"),
		shift(t, "tue-other", june10.AddDays(1), "09:00", "13:00", "G"),
	} {
		require.NoError(t, store.SaveShift(ctx, s))
	}
	sick := approved(t, "sick-1", "E", scheduling.AbsenceSickLeave, june10, june10.AddDays(2), nil)
	require.NoError(t, store.SaveAbsence(ctx, sick))

	cr := scheduling.NewCoverageResolver(store, scheduling.NewAvailabilityChecker(store, store), nil)
	cr.AuditLog = store
	return store, cr, sick
}

func shiftIDs(shifts []scheduling.Shift) []scheduling.ShiftID {
	out := make([]scheduling.ShiftID, len(shifts))
	for i, s := range shifts {
		out[i] = s.ID
	}
	return out
}

// =============================================================================
// AFFECTED SHIFTS
// =============================================================================

func TestFindAffectedShifts_OrderedAndScoped(t *testing.T) {
	_, cr, sick := coverageFixture(t)

	shifts, err := cr.FindAffectedShifts(context.Background(), company, "E", sick.Period)

	require.NoError(t, err)
	assert.Equal(t, []scheduling.ShiftID{"mon-am", "mon-pm", "wed"}, shiftIDs(shifts))
}

func TestNewPlan_OnlyApprovedSickLeave(t *testing.T) {
	_, cr, sick := coverageFixture(t)
	ctx := context.Background()

	vacation := approved(t, "v", "E", scheduling.AbsenceVacation, june10, june10, nil)
	_, err := cr.NewPlan(ctx, vacation)
	assert.ErrorIs(t, err, generic.ErrNotApplicable)

	p := sick
	p.Status = scheduling.AbsencePending
	_, err = cr.NewPlan(ctx, p)
	assert.ErrorIs(t, err, generic.ErrNotApplicable)
}

func TestNewPlan_PartialSickLeaveOnlyOverlappingShifts(t *testing.T) {
	_, cr, _ := coverageFixture(t)
	w := window(t, "13:00", "18:00")
	sick := approved(t, "sick-2", "E", scheduling.AbsenceSickLeave, june10, june10, &w)

	plan, err := cr.NewPlan(context.Background(), sick)

	require.NoError(t, err)
	assert.Equal(t, []scheduling.ShiftID{"mon-pm"}, shiftIDs(plan.Shifts))
}

// =============================================================================
// CONFIRM GATE
// =============================================================================

func TestConfirm_BlockedUntilEveryShiftResolved(t *testing.T) {
	// GIVEN: three affected shifts
	store, cr, sick := coverageFixture(t)
	ctx := context.Background()
	plan, err := cr.NewPlan(ctx, sick)
	require.NoError(t, err)
	require.Len(t, plan.Shifts, 3)

	// WHEN: only two are resolved
	require.NoError(t, plan.Resolve("mon-am", scheduling.Uncover()))
	require.NoError(t, plan.Resolve("mon-pm", scheduling.Replace("H")))
	assert.False(t, plan.CanConfirm())

	// THEN: confirm is refused and nothing is written
	_, err = cr.Confirm(ctx, "manager-1", plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrUnresolvedCoverage)
	var unresolved *generic.UnresolvedCoverageError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, []string{"wed"}, unresolved.ShiftIDs)

	monAM, err := store.GetShift(ctx, "mon-am")
	require.NoError(t, err)
	assert.Equal(t, []scheduling.EmployeeID{"F", "E"}, monAM.Employees)

	// WHEN: the third is resolved
	require.NoError(t, plan.Resolve("wed", scheduling.Uncover()))
	require.True(t, plan.CanConfirm())
	outcome, err := cr.Confirm(ctx, "manager-1", plan)

	// THEN: every action applied
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Applied())
	assert.Equal(t, []scheduling.ShiftID{"mon-am", "wed"}, outcome.Uncovered)
	assert.Equal(t, map[scheduling.ShiftID]scheduling.EmployeeID{"mon-pm": "H"}, outcome.Replaced)

	monAM, _ = store.GetShift(ctx, "mon-am")
	assert.Equal(t, []scheduling.EmployeeID{"F"}, monAM.Employees)
	monPM, _ := store.GetShift(ctx, "mon-pm")
	assert.Equal(t, []scheduling.EmployeeID{"H"}, monPM.Employees)
	wed, _ := store.GetShift(ctx, "wed")
	assert.Equal(t, []scheduling.EmployeeID{"F"}, wed.Employees)
	thu, _ := store.GetShift(ctx, "thu")
	assert.Equal(t, []scheduling.EmployeeID{"E"}, thu.Employees, "outside the absence")

	entries, err := store.Query(ctx, generic.AuditFilter{Actions: []generic.AuditAction{
		generic.AuditShiftUncovered, generic.AuditShiftReplaced,
	}})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestConfirm_UncoverKeepsEmptyShift(t *testing.T) {
	store, cr, _ := coverageFixture(t)
	ctx := context.Background()
	w := window(t, "14:00", "18:00")
	sick := approved(t, "sick-2", "E", scheduling.AbsenceSickLeave, june10, june10, &w)
	plan, err := cr.NewPlan(ctx, sick)
	require.NoError(t, err)

	require.NoError(t, plan.Resolve("mon-pm", scheduling.Uncover()))
	_, err = cr.Confirm(ctx, "m", plan)
	require.NoError(t, err)

	monPM, err := store.GetShift(ctx, "mon-pm")
	require.NoError(t, err)
	require.NotNil(t, monPM, "shift survives with no employees")
	assert.Empty(t, monPM.Employees)
}

func TestConfirm_ReplacementKeepsPosition(t *testing.T) {
	store, cr, sick := coverageFixture(t)
	ctx := context.Background()
	plan, err := cr.NewPlan(ctx, sick)
	require.NoError(t, err)

	require.NoError(t, plan.Resolve("mon-am", scheduling.Replace("H")))
	require.NoError(t, plan.Resolve("mon-pm", scheduling.Uncover()))
	require.NoError(t, plan.Resolve("wed", scheduling.Uncover()))
	_, err = cr.Confirm(ctx, "m", plan)
	require.NoError(t, err)

	monAM, _ := store.GetShift(ctx, "mon-am")
	assert.Equal(t, []scheduling.EmployeeID{"F", "H"}, monAM.Employees)
}

func TestResolve_Rejects(t *testing.T) {
	_, cr, sick := coverageFixture(t)
	plan, err := cr.NewPlan(context.Background(), sick)
	require.NoError(t, err)

	assert.ErrorIs(t, plan.Resolve("thu", scheduling.Uncover()), generic.ErrNotApplicable, "not affected")
	assert.ErrorIs(t, plan.Resolve("mon-am", scheduling.Replace("")), generic.ErrNotApplicable, "no candidate")
	assert.ErrorIs(t, plan.Resolve("mon-am", scheduling.Replace("F")), generic.ErrDuplicateAssignment, "already on shift")
	assert.Empty(t, plan.Actions)
}

func TestCandidates_ExcludeBusyAndAssigned(t *testing.T) {
	_, cr, sick := coverageFixture(t)
	ctx := context.Background()
	plan, err := cr.NewPlan(ctx, sick)
	require.NoError(t, err)

	// mon-am is 08:00-12:00 with F and E; G works only on Tuesday
	got, err := cr.Candidates(ctx, plan.Shifts[0], []scheduling.EmployeeID{"E", "F", "G", "H"})

	require.NoError(t, err)
	assert.Equal(t, []scheduling.EmployeeID{"G", "H"}, got)
}

func TestConfirm_StoreFailureReportsPartialOutcome(t *testing.T) {
	boom := errors.New("write failed")
	shifts := []scheduling.Shift{
		shift(t, "s1", june10, "08:00", "12:00", "E"),
		shift(t, "s2", june10.AddDays(1), "08:00", "12:00", "E"),
	}
	removed := 0
	fake := &fakeShiftStore{
		ShiftsInRangeFn: func(context.Context, scheduling.CompanyID, generic.TimePoint, generic.TimePoint) ([]scheduling.Shift, error) {
			return shifts, nil
		},
		RemoveEmployeeFn: func(context.Context, scheduling.ShiftID, scheduling.EmployeeID) error {
			removed++
			if removed == 2 {
				return boom
			}
			return nil
		},
	}
	cr := scheduling.NewCoverageResolver(fake, nil, nil)
	sick := approved(t, "sick-1", "E", scheduling.AbsenceSickLeave, june10, june10.AddDays(1), nil)
	plan, err := cr.NewPlan(context.Background(), sick)
	require.NoError(t, err)
	require.NoError(t, plan.Resolve("s1", scheduling.Uncover()))
	require.NoError(t, plan.Resolve("s2", scheduling.Uncover()))

	outcome, err := cr.Confirm(context.Background(), "m", plan)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []scheduling.ShiftID{"s1"}, outcome.Uncovered)
}
