// Package cache puts Redis in front of the publication lookup, which every
// manager dashboard hits on each load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

const (
	KeyPrefix  = "bizsync:published:"
	DefaultTTL = 6 * time.Hour

	// FetchTimeout bounds one shared store lookup. The lookup outlives the
	// caller that started it, so it cannot rely on that caller's deadline.
	FetchTimeout = 5 * time.Second
)

// Key is the cache key of a company's week.
func Key(companyID scheduling.CompanyID, weekStart generic.TimePoint) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, companyID, weekStart)
}

type record struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	WeekStart string    `json:"week_start"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicationCache is a read-through scheduling.WeeklyShiftStore.
//
// Only positive lookups are cached: PUBLISHED is terminal, so a cached
// record never goes stale, while a miss may turn into a hit at any moment.
// Redis failures fall back to the wrapped store.
type PublicationCache struct {
	next   scheduling.WeeklyShiftStore
	rdb    *redis.Client
	sf     singleflight.Group
	ttl    time.Duration
	logger *zap.Logger
}

func NewPublicationCache(next scheduling.WeeklyShiftStore, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *PublicationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicationCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *PublicationCache) PublishedRecordForWeek(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	key := Key(companyID, weekStart)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if ws, ok := decode(cached); ok {
			return ws, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("publication cache read failed", zap.String("key", key), zap.Error(err))
	}

	// Callers waiting on the same key share one lookup; it runs detached
	// from ctx so one caller giving up does not fail the others.
	fetch := c.sf.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()

		ws, err := c.next.PublishedRecordForWeek(fetchCtx, companyID, weekStart)
		if err != nil || ws == nil {
			return ws, err
		}
		if payload, err := encode(*ws); err == nil {
			if err := c.rdb.Set(fetchCtx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("publication cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return ws, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-fetch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*scheduling.WeeklyShift), nil
	}
}

// Invalidate drops the cached record of a week.
func (c *PublicationCache) Invalidate(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) error {
	return c.rdb.Del(ctx, Key(companyID, weekStart)).Err()
}

func encode(ws scheduling.WeeklyShift) (string, error) {
	b, err := json.Marshal(record{
		ID:        ws.ID,
		CompanyID: string(ws.CompanyID),
		WeekStart: ws.WeekStart.String(),
		Status:    string(ws.Status),
		CreatedAt: ws.CreatedAt.UTC(),
	})
	return string(b), err
}

func decode(s string) (*scheduling.WeeklyShift, bool) {
	var r record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false
	}
	week, err := generic.ParseTimePoint(r.WeekStart)
	if err != nil {
		return nil, false
	}
	return &scheduling.WeeklyShift{
		ID:        r.ID,
		CompanyID: scheduling.CompanyID(r.CompanyID),
		WeekStart: week,
		Status:    scheduling.PublicationStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}, true
}
