package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	dutytypeHandler "guardhouse/internal/dutytype/handler"
	notificationHandler "guardhouse/internal/notification/handler"
	"guardhouse/internal/platform/config"
	httpMetrics "guardhouse/internal/platform/metrics"
	ratelimit "guardhouse/internal/ratelimit/middleware"
	rosterHandler "guardhouse/internal/roster/handler"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/httputil"
	adminmw "guardhouse/pkg/platform/middleware/admin"
	authmw "guardhouse/pkg/platform/middleware/auth"
	requestmw "guardhouse/pkg/platform/middleware/request"
	"guardhouse/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	cfg           config.Server
	logger        *zap.Logger
	metrics       *httpMetrics.Metrics
	gatherer      prometheus.Gatherer
	validator     authmw.JWTValidator
	limiter       *ratelimit.Middleware
	roster        *rosterHandler.Handler
	dutyTypes     *dutytypeHandler.Handler
	notifications *notificationHandler.Handler
	ready         func(ctx context.Context) error
}

// newRouter mounts the public probes, the supervisor API and the admin API.
// Every API route needs a principal, either from a bearer token or from the
// bootstrap admin token.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestmw.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(requestmw.Logger(d.logger))
	r.Use(requestmw.Recovery(d.logger))
	r.Use(d.metrics.LatencyMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(r.Context()); err != nil {
			d.logger.Warn("readiness check failed", zap.Error(err))
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "dependencies unavailable"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", httpMetrics.Handler(d.gatherer))

	r.Group(func(api chi.Router) {
		if d.cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(d.cfg.RequestTimeout))
		}
		api.Use(adminmw.BootstrapToken(d.cfg.AdminToken, d.logger))
		api.Use(authmw.RequireAuth(d.validator, d.logger))
		api.Use(d.limiter.RateLimit)

		api.Group(func(sup chi.Router) {
			sup.Use(authmw.RequireRole(d.logger, id.RoleSupervisor))
			d.roster.Register(sup)
		})
		api.Group(func(authed chi.Router) {
			d.dutyTypes.Register(authed)
			d.notifications.Register(authed)
		})
		api.Group(func(admin chi.Router) {
			admin.Use(authmw.RequireRole(d.logger, id.RoleAdmin))
			d.roster.RegisterAdmin(admin)
			d.dutyTypes.RegisterAdmin(admin)
		})
	})
	return r
}
