package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"guardhouse/internal/ratelimit/models"
)

const keyPrefix = "guardhouse:ratelimit:"

// The window is a sorted set of request timestamps in milliseconds. Trimming,
// counting and adding happen in one script so concurrent instances cannot
// overshoot the limit.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {1, limit - count - 1, tonumber(oldest[2])}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, 0, tonumber(oldest[2])}
`)

// RedisBucketStore shares sliding windows between instances.
type RedisBucketStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisBucketStore(client redis.Cmdable) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	raw, err := slidingWindowScript.Run(ctx, s.client,
		[]string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply of length %d", len(raw))
	}

	resetAt := time.UnixMilli(raw[2]).Add(window)
	result := &models.RateLimitResult{
		Allowed:   raw[0] == 1,
		Limit:     limit,
		Remaining: int(raw[1]),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(now, resetAt)
	}
	return result, nil
}

func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
