// Package cache puts a Redis read-through cache in front of the duty-type
// directory. Only positive lookups are cached: a duty type created a moment ago
// must never be reported missing because of a stale negative entry.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	id "guardhouse/pkg/domain"
)

const (
	DefaultTTL = 10 * time.Minute
	keyPrefix  = "guardhouse:dutytype:exists:"
)

// Directory answers whether a duty type exists.
type Directory interface {
	Exists(ctx context.Context, dutyTypeID id.DutyTypeID) (bool, error)
}

// CachedDirectory wraps a Directory. Redis failures degrade to the backing
// directory and are logged, never returned.
type CachedDirectory struct {
	next   Directory
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func New(next Directory, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

func key(dutyTypeID id.DutyTypeID) string {
	return keyPrefix + dutyTypeID.String()
}

func (c *CachedDirectory) Exists(ctx context.Context, dutyTypeID id.DutyTypeID) (bool, error) {
	err := c.client.Get(ctx, key(dutyTypeID)).Err()
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("duty type cache read failed", zap.Error(err), zap.Int64("duty_type_id", int64(dutyTypeID)))
	}

	ok, err := c.next.Exists(ctx, dutyTypeID)
	if err != nil || !ok {
		return ok, err
	}
	if err := c.client.Set(ctx, key(dutyTypeID), "1", c.ttl).Err(); err != nil {
		c.logger.Warn("duty type cache write failed", zap.Error(err), zap.Int64("duty_type_id", int64(dutyTypeID)))
	}
	return true, nil
}

// Invalidate drops the cached entry after the duty type is deleted.
func (c *CachedDirectory) Invalidate(ctx context.Context, dutyTypeID id.DutyTypeID) error {
	if err := c.client.Del(ctx, key(dutyTypeID)).Err(); err != nil {
		return fmt.Errorf("invalidate duty type %d: %w", dutyTypeID, err)
	}
	return nil
}
