package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
	"github.com/GiuseppeRudi/BizSync-sub002/store/memory"
)

type companiesFunc func(ctx context.Context) ([]scheduling.CompanyID, error)

func (f companiesFunc) ListCompanies(ctx context.Context) ([]scheduling.CompanyID, error) {
	return f(ctx)
}

func newReminder(t *testing.T, store *memory.Memory, today time.Time) (*PublicationReminder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	publication := scheduling.NewPublicationService(store, time.Friday, nil)
	publication.Now = func() time.Time { return today }
	return NewPublicationReminder(store, publication, zap.New(core)), logs
}

func TestPublicationReminder_WarnsWhenDueAndUnpublished(t *testing.T) {
	// GIVEN: Thursday before a Friday deadline; acme published, beta only drafted
	ctx := context.Background()
	store := memory.NewMemory()
	week := generic.NewTimePoint(2024, 6, 17)
	require.NoError(t, store.SaveWeeklyShift(ctx, scheduling.WeeklyShift{ID: "w1", CompanyID: "acme", WeekStart: week, Status: scheduling.StatusPublished}))
	require.NoError(t, store.SaveWeeklyShift(ctx, scheduling.WeeklyShift{ID: "w2", CompanyID: "beta", WeekStart: week, Status: scheduling.StatusDraft}))
	thursday := time.Date(2024, 6, 13, 9, 0, 0, 0, time.UTC)
	reminder, logs := newReminder(t, store, thursday)

	// WHEN
	due := reminder.RunNow(ctx)

	// THEN: only beta is reminded, at HIGH
	require.Len(t, due, 1)
	assert.Equal(t, scheduling.CompanyID("beta"), due[0].CompanyID)
	assert.Equal(t, scheduling.UrgencyHigh, due[0].Info.Urgency)
	warnings := logs.FilterMessage("weekly roster not published").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "beta", warnings[0].ContextMap()["company_id"])
}

func TestPublicationReminder_QuietWhenNotUrgent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemory()
	require.NoError(t, store.SaveWeeklyShift(ctx, scheduling.WeeklyShift{ID: "w1", CompanyID: "acme", WeekStart: generic.NewTimePoint(2024, 6, 17), Status: scheduling.StatusDraft}))
	monday := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	reminder, _ := newReminder(t, store, monday)

	assert.Empty(t, reminder.RunNow(ctx))
}

func TestPublicationReminder_ListFailure(t *testing.T) {
	publication := scheduling.NewPublicationService(memory.NewMemory(), time.Friday, nil)
	reminder := NewPublicationReminder(companiesFunc(func(context.Context) ([]scheduling.CompanyID, error) {
		return nil, errors.New("db down")
	}), publication, nil)

	assert.Nil(t, reminder.RunNow(context.Background()))
}

func TestPublicationReminder_StartStop(t *testing.T) {
	calls := make(chan struct{}, 10)
	publication := scheduling.NewPublicationService(memory.NewMemory(), time.Friday, nil)
	reminder := NewPublicationReminder(companiesFunc(func(context.Context) ([]scheduling.CompanyID, error) {
		calls <- struct{}{}
		return nil, nil
	}), publication, nil)
	reminder.CheckInterval = time.Hour

	reminder.Start()
	reminder.Start() // second start is a no-op

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not run on start")
	}
	reminder.Stop()
	reminder.Stop()

	disabled := NewPublicationReminder(companiesFunc(func(context.Context) ([]scheduling.CompanyID, error) {
		t.Error("disabled reminder must not run")
		return nil, nil
	}), publication, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}
