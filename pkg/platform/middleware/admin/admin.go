package admin

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	id "guardhouse/pkg/domain"
	"guardhouse/pkg/requestcontext"
)

// BootstrapToken grants the administrator role to requests presenting the
// configured X-Admin-Token. It is meant for provisioning the first owners before
// a session service issues tokens. Other requests pass through unchanged.
// An empty expectedToken disables the middleware.
func BootstrapToken(expectedToken string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedToken == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			// Use constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.Warn("admin token mismatch",
					zap.String("request_id", requestcontext.RequestID(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token mismatch"}`))
				return
			}
			ctx := requestcontext.WithPrincipal(r.Context(), 0, id.RoleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
