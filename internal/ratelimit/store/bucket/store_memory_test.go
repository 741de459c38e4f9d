package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"guardhouse/internal/ratelimit/models"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.RateLimitResult
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "limit", testLimit, testWindow)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "over", testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		s.now = s.now.Add(20 * time.Second)
		result, err := s.store.Allow(s.ctx, "over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(40, result.RetryAfter)
	})

	s.Run("window slides", func() {
		start := s.now
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "slide", testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		s.now = start.Add(testWindow + time.Millisecond)
		result, err := s.store.Allow(s.ctx, "slide", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "a", testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		result, err := s.store.Allow(s.ctx, "b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "reset", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "reset"))

	result, err := s.store.Allow(s.ctx, "reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentCallersNeverOvershoot() {
	const callers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "race", testLimit, testWindow)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}
