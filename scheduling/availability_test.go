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

func newChecker(t *testing.T, shifts []scheduling.Shift, absences []scheduling.Absence) *scheduling.AvailabilityChecker {
	t.Helper()
	ctx := context.Background()
	store := memory.NewMemory()
	for _, s := range shifts {
		require.NoError(t, store.SaveShift(ctx, s))
	}
	for _, a := range absences {
		require.NoError(t, store.SaveAbsence(ctx, a))
	}
	return scheduling.NewAvailabilityChecker(store, store)
}

// =============================================================================
// SHIFT OVERLAP
// =============================================================================

func TestIsAvailable_ShiftOverlap(t *testing.T) {
	// GIVEN: E works 09:00-13:00 on 2024-06-10
	ac := newChecker(t, []scheduling.Shift{shift(t, "s1", june10, "09:00", "13:00", "E")}, nil)
	ctx := context.Background()

	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"inside shift", "11:00", "12:00", false},
		{"starts at shift end", "13:00", "15:00", true},
		{"ends at shift start", "07:00", "09:00", true},
		{"straddles start", "08:00", "10:00", false},
		{"contains shift", "08:00", "14:00", false},
		{"afternoon", "14:00", "18:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// WHEN / THEN
			got, err := ac.IsAvailable(ctx, company, "E", june10, window(t, tc.start, tc.end))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsAvailable_OtherDayAndOtherEmployee(t *testing.T) {
	ac := newChecker(t, []scheduling.Shift{shift(t, "s1", june10, "09:00", "13:00", "E")}, nil)
	ctx := context.Background()

	ok, err := ac.IsAvailable(ctx, company, "E", june10.AddDays(1), window(t, "09:00", "13:00"))
	require.NoError(t, err)
	assert.True(t, ok, "shift on another day does not block")

	ok, err = ac.IsAvailable(ctx, company, "F", june10, window(t, "09:00", "13:00"))
	require.NoError(t, err)
	assert.True(t, ok, "colleague is free")
}

func TestIsAvailable_EmptyWindowIsNeverAvailable(t *testing.T) {
	ac := newChecker(t, nil, nil)
	ctx := context.Background()

	w := generic.NewTimeRange(generic.NewClockTime(10, 0), generic.NewClockTime(10, 0))
	ok, err := ac.IsAvailable(ctx, company, "E", june10, w)
	require.NoError(t, err)
	assert.False(t, ok)

	inverted := generic.NewTimeRange(generic.NewClockTime(12, 0), generic.NewClockTime(10, 0))
	ok, err = ac.IsAvailable(ctx, company, "E", june10, inverted)
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestIsAvailable_ApprovedFullDayAbsenceBlocksWholeDay(t *testing.T) {
	vacation := approved(t, "a1", "E", scheduling.AbsenceVacation, june10, june10.AddDays(2), nil)
	ac := newChecker(t, nil, []scheduling.Absence{vacation})
	ctx := context.Background()

	for _, w := range []generic.TimeRange{window(t, "00:00", "01:00"), window(t, "12:00", "13:00"), window(t, "23:00", "24:00")} {
		ok, err := ac.IsAvailable(ctx, company, "E", june10.AddDays(1), w)
		require.NoError(t, err)
		assert.False(t, ok, w.String())
	}

	ok, err := ac.IsAvailable(ctx, company, "E", june10.AddDays(3), window(t, "09:00", "10:00"))
	require.NoError(t, err)
	assert.True(t, ok, "day after the absence")
}

func TestIsAvailable_PendingAbsenceDoesNotBlock(t *testing.T) {
	// GIVEN: E has a pending vacation request for the day
	req := pending(t, "a1", "E", scheduling.AbsenceVacation, june10, june10, nil)
	ac := newChecker(t, nil, []scheduling.Absence{req})

	// WHEN / THEN: still available until approved
	ok, err := ac.IsAvailable(context.Background(), company, "E", june10, window(t, "09:00", "17:00"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_RejectedAbsenceDoesNotBlock(t *testing.T) {
	req := pending(t, "a1", "E", scheduling.AbsenceVacation, june10, june10, nil)
	req.Status = scheduling.AbsenceRejected
	ac := newChecker(t, nil, []scheduling.Absence{req})

	ok, err := ac.IsAvailable(context.Background(), company, "E", june10, window(t, "09:00", "17:00"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_PartialAbsenceOnlyBlocksItsWindow(t *testing.T) {
	// GIVEN: E has approved ROL 14:00-18:00
	w := window(t, "14:00", "18:00")
	rol := approved(t, "a1", "E", scheduling.AbsenceROL, june10, june10, &w)
	ac := newChecker(t, nil, []scheduling.Absence{rol})
	ctx := context.Background()

	// THEN: morning is free, afternoon is not
	ok, err := ac.IsAvailable(ctx, company, "E", june10, window(t, "09:00", "14:00"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ac.IsAvailable(ctx, company, "E", june10, window(t, "13:00", "15:00"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAvailable_Monotonic(t *testing.T) {
	// Shrinking an available window keeps it available; growing an
	// unavailable window keeps it unavailable.
	ac := newChecker(t, []scheduling.Shift{shift(t, "s1", june10, "09:00", "13:00", "E")}, nil)
	ctx := context.Background()

	free := window(t, "13:00", "20:00")
	ok, err := ac.IsAvailable(ctx, company, "E", june10, free)
	require.NoError(t, err)
	require.True(t, ok)
	for end := free.End - 60; end > free.Start; end -= 60 {
		ok, err := ac.IsAvailable(ctx, company, "E", june10, generic.NewTimeRange(free.Start, end))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	busy := window(t, "12:00", "14:00")
	for start := busy.Start; start >= 0; start -= 60 {
		ok, err := ac.IsAvailable(ctx, company, "E", june10, generic.NewTimeRange(start, busy.End))
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestIsAvailable_StoreFailure(t *testing.T) {
	boom := errors.New("db down")
	ac := scheduling.NewAvailabilityChecker(
		&fakeShiftStore{ShiftsOnDateFn: func(context.Context, scheduling.CompanyID, generic.TimePoint) ([]scheduling.Shift, error) {
			return nil, boom
		}},
		&fakeAbsenceStore{},
	)

	_, err := ac.IsAvailable(context.Background(), company, "E", june10, window(t, "09:00", "10:00"))
	assert.ErrorIs(t, err, boom)
}

// =============================================================================
// REPLACEMENTS & DAY STATES
// =============================================================================

func TestAvailableReplacements(t *testing.T) {
	// GIVEN: morning shift with E and F; G works afternoon, H is on vacation
	morning := shift(t, "s1", june10, "09:00", "13:00", "E", "F")
	ac := newChecker(t,
		[]scheduling.Shift{morning, shift(t, "s2", june10, "12:00", "18:00", "G")},
		[]scheduling.Absence{approved(t, "a1", "H", scheduling.AbsenceVacation, june10, june10, nil)},
	)

	// WHEN
	got, err := ac.AvailableReplacements(context.Background(), morning, []scheduling.EmployeeID{"E", "F", "G", "H", "I", "J", "I"})

	// THEN: only I and J, in pool order, without duplicates
	require.NoError(t, err)
	assert.Equal(t, []scheduling.EmployeeID{"I", "J"}, got)
}

func TestAssignmentConflicts_IgnoresStoredVersionOfSameShift(t *testing.T) {
	// GIVEN: s1 already stored with E; G works an overlapping shift; H on vacation
	s1 := shift(t, "s1", june10, "09:00", "13:00", "E")
	ac := newChecker(t,
		[]scheduling.Shift{s1, shift(t, "s2", june10, "12:00", "18:00", "G")},
		[]scheduling.Absence{approved(t, "a1", "H", scheduling.AbsenceVacation, june10, june10, nil)},
	)

	// WHEN: re-saving s1 with E, F, G and H
	edited := s1
	edited.Employees = []scheduling.EmployeeID{"E", "F", "G", "H"}
	busy, err := ac.AssignmentConflicts(context.Background(), edited, edited.Employees, nil)

	// THEN: E is not blocked by the old copy of s1
	require.NoError(t, err)
	assert.Equal(t, []scheduling.EmployeeID{"G", "H"}, busy)
}

func TestAssignmentConflicts_CountsUnsavedEdits(t *testing.T) {
	// GIVEN: a and b both belong to E and overlap
	a := shift(t, "a", june10, "09:00", "13:00", "E")
	b := shift(t, "b", june10, "10:00", "12:00", "E")
	ac := newChecker(t, []scheduling.Shift{a, b}, nil)
	ctx := context.Background()

	busy, err := ac.AssignmentConflicts(ctx, b, []scheduling.EmployeeID{"H"}, nil)
	require.NoError(t, err)
	assert.Empty(t, busy)

	// WHEN: H already takes over a in the same batch
	aWithH, err := a.WithReplacement("E", "H")
	require.NoError(t, err)
	busy, err = ac.AssignmentConflicts(ctx, b, []scheduling.EmployeeID{"H"}, []scheduling.Shift{aWithH})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, []scheduling.EmployeeID{"H"}, busy)

	// The edit on another day does not count.
	elsewhere := aWithH
	elsewhere.Date = june10.AddDays(1)
	busy, err = ac.AssignmentConflicts(ctx, b, []scheduling.EmployeeID{"H"}, []scheduling.Shift{elsewhere})
	require.NoError(t, err)
	assert.Empty(t, busy)
}

func TestDayStates(t *testing.T) {
	w := window(t, "08:00", "12:00")
	ac := newChecker(t,
		[]scheduling.Shift{
			shift(t, "late", june10, "14:00", "18:00", "E"),
			shift(t, "early", june10, "06:00", "10:00", "E"),
		},
		[]scheduling.Absence{
			approved(t, "a1", "F", scheduling.AbsenceSickLeave, june10, june10, nil),
			approved(t, "a2", "G", scheduling.AbsenceROL, june10, june10, &w),
		},
	)

	states, err := ac.DayStates(context.Background(), company, june10, []scheduling.EmployeeID{"E", "F", "G", "H"})
	require.NoError(t, err)
	require.Len(t, states, 4)

	e, f, g, h := states[0], states[1], states[2], states[3]

	assert.Equal(t, []scheduling.ShiftID{"early", "late"}, e.AssignedShifts)
	assert.True(t, e.IsAssigned())
	assert.False(t, e.FullyAbsent)

	assert.True(t, f.FullyAbsent)
	assert.Equal(t, scheduling.AbsenceSickLeave, f.AbsenceType)
	assert.Nil(t, f.PartialAbsence)

	assert.False(t, g.FullyAbsent)
	require.NotNil(t, g.PartialAbsence)
	assert.Equal(t, w, *g.PartialAbsence)
	assert.Equal(t, scheduling.AbsenceROL, g.AbsenceType)

	assert.False(t, h.IsAssigned())
	assert.False(t, h.FullyAbsent)
	assert.Nil(t, h.PartialAbsence)
}
