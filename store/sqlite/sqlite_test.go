package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var monday = generic.NewTimePoint(2024, time.June, 10)

func testShift(id string, date generic.TimePoint, start, end int, employees ...scheduling.EmployeeID) scheduling.Shift {
	return scheduling.Shift{
		ID:         scheduling.ShiftID(id),
		CompanyID:  "acme",
		Department: "Sala",
		Date:       date,
		Window:     generic.NewTimeRange(generic.NewClockTime(start, 0), generic.NewClockTime(end, 0)),
		Employees:  employees,
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShifts_SaveAndQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	s := testShift("s1", monday, 9, 13, "E", "F")
	s.Breaks = []scheduling.Break{{Duration: 30 * time.Minute, Paid: true, Type: scheduling.BreakMeal}}
	s.Notes = []scheduling.Note{{Type: scheduling.NoteTask, Text: "inventory"}}
	require.NoError(t, store.SaveShift(ctx, s))
	require.NoError(t, store.SaveShift(ctx, testShift("s0", monday, 6, 9, "G")))
	require.NoError(t, store.SaveShift(ctx, testShift("s2", monday.AddDays(1), 9, 13, "E")))
	other := testShift("x", monday, 9, 13, "E")
	other.CompanyID = "other"
	require.NoError(t, store.SaveShift(ctx, other))

	day, err := store.ShiftsOnDate(ctx, "acme", monday)
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, scheduling.ShiftID("s0"), day[0].ID, "ordered by start")
	assert.Equal(t, scheduling.ShiftID("s1"), day[1].ID)
	assert.Equal(t, []scheduling.EmployeeID{"E", "F"}, day[1].Employees)
	assert.Equal(t, s.Breaks, day[1].Breaks)
	assert.Equal(t, s.Notes, day[1].Notes)
	assert.Equal(t, "09:00-13:00", day[1].Window.String())
	assert.Equal(t, "2024-06-10", day[1].Date.String())

	week, err := store.ShiftsInRange(ctx, "acme", monday, monday.AddDays(6))
	require.NoError(t, err)
	assert.Len(t, week, 3)
}

func TestShifts_SaveRejectsDuplicates(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveShift(context.Background(), testShift("s1", monday, 9, 13, "E", "E"))

	assert.ErrorIs(t, err, generic.ErrDuplicateAssignment)
}

func TestShifts_RemoveEmployeeKeepsShift(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveShift(ctx, testShift("s1", monday, 9, 13, "E")))

	require.NoError(t, store.RemoveEmployee(ctx, "s1", "E"))

	got, err := store.GetShift(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Employees)

	assert.ErrorIs(t, store.RemoveEmployee(ctx, "missing", "E"), generic.ErrNotFound)
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestAbsences_OverlapAndDecision(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	w := generic.NewTimeRange(generic.NewClockTime(14, 0), generic.NewClockTime(18, 0))
	rol, err := scheduling.NewAbsenceRequest("rol", "acme", "E", scheduling.AbsenceROL,
		generic.SingleDay(monday.AddDays(2)), &w, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	vacation, err := scheduling.NewAbsenceRequest("vac", "acme", "F", scheduling.AbsenceVacation,
		generic.Period{Start: monday, End: monday.AddDays(4)}, nil, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, store.SaveAbsence(ctx, rol))
	require.NoError(t, store.SaveAbsence(ctx, vacation))

	got, err := store.AbsencesInRange(ctx, "acme", monday.AddDays(4), monday.AddDays(4))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scheduling.AbsenceID("vac"), got[0].ID)
	assert.True(t, got[0].TotalDays.Equal(generic.NewAmount(5, generic.UnitDays)))

	got, err = store.AbsencesInRange(ctx, "acme", monday.AddDays(2), monday.AddDays(2))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	today := monday.AddDays(-3)
	decided, err := scheduling.DecideAbsence(rol, "manager", true, today, "ok")
	require.NoError(t, err)
	require.NoError(t, store.UpdateAbsence(ctx, decided))

	back, err := store.GetAbsence(ctx, "rol")
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.Equal(t, scheduling.AbsenceApproved, back.Status)
	assert.Equal(t, "manager", back.ApproverID)
	require.NotNil(t, back.ApprovalDate)
	assert.Equal(t, today.String(), back.ApprovalDate.String())
	require.NotNil(t, back.Window)
	assert.Equal(t, w, *back.Window)
	assert.True(t, back.TotalHours.Equal(generic.NewAmount(4, generic.UnitHours)))

	mine, err := store.AbsencesForEmployee(ctx, "E")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	decided.ID = "missing"
	assert.ErrorIs(t, store.UpdateAbsence(ctx, decided), generic.ErrNotFound)
}

// =============================================================================
// CONTRACTS
// =============================================================================

func TestContracts_Upsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	none, err := store.ContractFor(ctx, "E")
	require.NoError(t, err)
	assert.Nil(t, none)

	c := scheduling.Contract{
		EmployeeID:        "E",
		CompanyID:         "acme",
		CCNL:              "commercio",
		VacationDaysLimit: generic.NewAmount(26, generic.UnitDays),
		ROLHoursLimit:     generic.NewAmount(72, generic.UnitHours),
		PaidSickDaysLimit: generic.NewAmount(180, generic.UnitDays),
		VacationDaysUsed:  generic.NewAmount(2.5, generic.UnitDays),
		ROLHoursUsed:      generic.NewAmount(4, generic.UnitHours),
		SickDaysUsed:      generic.ZeroAmount(generic.UnitDays),
	}
	require.NoError(t, store.UpdateContract(ctx, c))

	c.VacationDaysUsed = generic.NewAmount(5, generic.UnitDays)
	require.NoError(t, store.UpdateContract(ctx, c))

	got, err := store.ContractFor(ctx, "E")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(c))

	all, err := store.ContractsForCompany(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// =============================================================================
// WEEKLY SHIFTS
// =============================================================================

func TestWeeklyShifts_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	week := monday.AddDays(7)

	none, err := store.PublishedRecordForWeek(ctx, "acme", week)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.SaveWeeklyShift(ctx, scheduling.WeeklyShift{ID: "w1", CompanyID: "acme", WeekStart: week, Status: scheduling.StatusDraft}))
	none, err = store.PublishedRecordForWeek(ctx, "acme", week)
	require.NoError(t, err)
	assert.Nil(t, none, "draft is not published")

	require.NoError(t, store.SaveWeeklyShift(ctx, scheduling.WeeklyShift{ID: "w2", CompanyID: "acme", WeekStart: week, Status: scheduling.StatusPublished}))

	published, err := store.PublishedRecordForWeek(ctx, "acme", week)
	require.NoError(t, err)
	require.NotNil(t, published)
	assert.Equal(t, "w2", published.ID)

	latest, err := store.LatestWeeklyShift(ctx, "acme", week)
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusPublished, latest.Status)

	companies, err := store.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []scheduling.CompanyID{"acme"}, companies)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func TestAuditLog_Filter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, generic.AuditEntry{ID: "1", Timestamp: now, ActorID: "m", Action: generic.AuditAbsenceApproved, CompanyID: "acme", EntityID: "a1", Payload: map[string]any{"comment": "ok"}}))
	require.NoError(t, store.Append(ctx, generic.AuditEntry{ID: "2", Timestamp: now, ActorID: "m", Action: generic.AuditContractUpdated, CompanyID: "acme", EntityID: "a1"}))
	require.NoError(t, store.Append(ctx, generic.AuditEntry{ID: "3", Timestamp: now, ActorID: "m", Action: generic.AuditShiftUncovered, CompanyID: "other", EntityID: "s1"}))

	company := "acme"
	got, err := store.Query(ctx, generic.AuditFilter{CompanyID: &company})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ok", got[0].Payload["comment"])
	assert.True(t, got[0].Timestamp.Equal(now))

	got, err = store.Query(ctx, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditShiftUncovered}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.EntityID("s1"), got[0].EntityID)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveShift(ctx, testShift("s1", monday, 9, 13, "E")))

	require.NoError(t, store.Reset(ctx))

	got, err := store.ShiftsOnDate(ctx, "acme", monday)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// DRIVER FAILURES
// =============================================================================

func TestDriverFailuresAreStoreErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := Open(db)

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT (.+) FROM weekly_shifts").
		WithArgs("acme", "2024-06-17").
		WillReturnError(boom)
	mock.ExpectExec("INSERT INTO contracts").WillReturnError(boom)

	_, err = store.PublishedRecordForWeek(context.Background(), "acme", monday.AddDays(7))
	assert.ErrorIs(t, err, generic.ErrStore)
	assert.ErrorIs(t, err, boom)

	err = store.UpdateContract(context.Background(), scheduling.Contract{EmployeeID: "E", CompanyID: "acme"})
	assert.ErrorIs(t, err, generic.ErrStore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAbsence_NoRowsIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := Open(db)

	mock.ExpectExec("UPDATE absences").WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.UpdateAbsence(context.Background(), scheduling.Absence{
		ID:         "a1",
		Status:     scheduling.AbsenceApproved,
		TotalDays:  generic.ZeroAmount(generic.UnitDays),
		TotalHours: generic.ZeroAmount(generic.UnitHours),
	})

	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
