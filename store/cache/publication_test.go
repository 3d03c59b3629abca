package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

type fakeWeeklyShifts struct {
	calls int
	fn    func(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error)
}

func (f *fakeWeeklyShifts) PublishedRecordForWeek(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	f.calls++
	return f.fn(ctx, companyID, weekStart)
}

var week = generic.NewTimePoint(2024, time.June, 17)

func published() *scheduling.WeeklyShift {
	return &scheduling.WeeklyShift{
		ID:        "w1",
		CompanyID: "acme",
		WeekStart: week,
		Status:    scheduling.StatusPublished,
		CreatedAt: time.Date(2024, 6, 14, 17, 0, 0, 0, time.UTC),
	}
}

func TestPublicationCache_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeWeeklyShifts{}
	c := NewPublicationCache(inner, rdb, time.Hour, nil)

	payload, err := encode(*published())
	require.NoError(t, err)
	mock.ExpectGet("bizsync:published:acme:2024-06-17").SetVal(payload)

	ws, err := c.PublishedRecordForWeek(context.Background(), "acme", week)

	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "w1", ws.ID)
	assert.Equal(t, scheduling.StatusPublished, ws.Status)
	assert.Equal(t, "2024-06-17", ws.WeekStart.String())
	assert.Zero(t, inner.calls, "store not consulted on hit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationCache_MissStoresPositive(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeWeeklyShifts{fn: func(context.Context, scheduling.CompanyID, generic.TimePoint) (*scheduling.WeeklyShift, error) {
		return published(), nil
	}}
	c := NewPublicationCache(inner, rdb, time.Hour, nil)

	key := Key("acme", week)
	payload, err := encode(*published())
	require.NoError(t, err)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

	ws, err := c.PublishedRecordForWeek(context.Background(), "acme", week)

	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationCache_MissNotCachedWhenUnpublished(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeWeeklyShifts{fn: func(context.Context, scheduling.CompanyID, generic.TimePoint) (*scheduling.WeeklyShift, error) {
		return nil, nil
	}}
	c := NewPublicationCache(inner, rdb, time.Hour, nil)
	mock.ExpectGet(Key("acme", week)).RedisNil()

	ws, err := c.PublishedRecordForWeek(context.Background(), "acme", week)

	require.NoError(t, err)
	assert.Nil(t, ws)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SET for a negative lookup")
}

func TestPublicationCache_RedisDownFallsBack(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeWeeklyShifts{fn: func(context.Context, scheduling.CompanyID, generic.TimePoint) (*scheduling.WeeklyShift, error) {
		return published(), nil
	}}
	c := NewPublicationCache(inner, rdb, time.Hour, nil)

	key := Key("acme", week)
	payload, _ := encode(*published())
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, payload, time.Hour).SetErr(errors.New("connection refused"))

	ws, err := c.PublishedRecordForWeek(context.Background(), "acme", week)

	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, 1, inner.calls)
}

func TestPublicationCache_StoreErrorPropagates(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	boom := errors.New("db down")
	inner := &fakeWeeklyShifts{fn: func(context.Context, scheduling.CompanyID, generic.TimePoint) (*scheduling.WeeklyShift, error) {
		return nil, boom
	}}
	c := NewPublicationCache(inner, rdb, time.Hour, nil)
	mock.ExpectGet(Key("acme", week)).RedisNil()

	_, err := c.PublishedRecordForWeek(context.Background(), "acme", week)

	assert.ErrorIs(t, err, boom)
}

func TestPublicationCache_Invalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewPublicationCache(&fakeWeeklyShifts{}, rdb, 0, nil)
	mock.ExpectDel(Key("acme", week)).SetVal(1)

	require.NoError(t, c.Invalidate(context.Background(), "acme", week))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationCache_SharedLookupSurvivesCallerCancel(t *testing.T) {
	// GIVEN: a slow store lookup
	rdb, mock := redismock.NewClientMock()
	started := make(chan struct{})
	release := make(chan struct{})
	lookupErr := make(chan error, 1)
	inner := &fakeWeeklyShifts{fn: func(ctx context.Context, _ scheduling.CompanyID, _ generic.TimePoint) (*scheduling.WeeklyShift, error) {
		close(started)
		<-release
		lookupErr <- ctx.Err()
		return published(), nil
	}}
	c := NewPublicationCache(inner, rdb, time.Hour, nil)

	key := Key("acme", week)
	payload, err := encode(*published())
	require.NoError(t, err)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := c.PublishedRecordForWeek(ctx, "acme", week)
		result <- err
	}()
	<-started

	// WHEN: the caller that started the lookup gives up
	cancel()

	// THEN: it returns at once while the lookup finishes and fills the cache
	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller still waiting")
	}
	close(release)
	assert.NoError(t, <-lookupErr, "lookup ran on the caller's canceled context")
	assert.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, 2*time.Second, 10*time.Millisecond)
}
