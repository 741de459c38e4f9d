// Package middleware throttles authenticated callers per principal, with
// separate allowances for reads and writes.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"guardhouse/internal/ratelimit/metrics"
	"guardhouse/internal/ratelimit/models"
	"guardhouse/pkg/platform/httputil"
	"guardhouse/pkg/requestcontext"
)

type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	limits   map[models.EndpointClass]models.Limit
	logger   *zap.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// WithLimit sets the allowance for class. A zero limit leaves the class unthrottled.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(m *Middleware) {
		m.limits[class] = limit
	}
}

func New(store BucketStore, logger *zap.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Middleware{
		store:  store,
		limits: make(map[models.EndpointClass]models.Limit),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit must run after authentication. Store failures let the request through.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		class := models.ClassFor(r.Method)
		limit, ok := m.limits[class]
		if !ok || !limit.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := string(class) + ":" + principalKey(r)
		result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
		if err != nil {
			m.logger.Error("failed to check rate limit",
				zap.Error(err),
				zap.String("class", string(class)),
				zap.String("request_id", requestcontext.RequestID(ctx)),
			)
			if m.metrics != nil {
				m.metrics.IncrementStoreErrors()
			}
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.IncrementRejected(string(class))
			}
			m.logger.Warn("rate limit exceeded",
				zap.String("class", string(class)),
				zap.String("principal", principalKey(r)),
				zap.String("request_id", requestcontext.RequestID(ctx)),
			)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// principalKey identifies the caller. Supervisors are keyed by id, the
// administrators share one key, and anything else falls back to the client IP.
func principalKey(r *http.Request) string {
	ctx := r.Context()
	if requestcontext.IsAdmin(ctx) {
		return "admin"
	}
	if ownerID := requestcontext.OwnerID(ctx); !ownerID.IsZero() {
		return "supervisor:" + strconv.FormatInt(int64(ownerID), 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
