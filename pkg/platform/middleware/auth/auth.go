package auth

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	id "guardhouse/pkg/domain"
	"guardhouse/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
// Administrators carry a zero OwnerID.
type JWTClaims struct {
	OwnerID id.OwnerID
	Role    id.Role
	JTI     string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and stores the principal in the request
// context. Requests that already carry a principal (see admin.BootstrapToken) pass through.
func RequireAuth(validator JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.Warn("unauthorized access - missing token",
					zap.String("request_id", requestcontext.RequestID(ctx)),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("unauthorized access - invalid token",
					zap.Error(err),
					zap.String("request_id", requestcontext.RequestID(ctx)),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if !claims.Role.IsValid() || (claims.Role == id.RoleSupervisor && claims.OwnerID.IsZero()) {
				logger.Warn("unauthorized access - incomplete principal",
					zap.String("role", string(claims.Role)),
					zap.String("request_id", requestcontext.RequestID(ctx)),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, claims.OwnerID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects principals whose role is not in roles.
func RequireRole(logger *zap.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := requestcontext.Role(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.Warn("forbidden - role not allowed",
				zap.String("role", string(role)),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestcontext.RequestID(r.Context())),
			)
			writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role")
		})
	}
}
