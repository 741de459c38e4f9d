package testutil

import (
	"net/http"

	id "guardhouse/pkg/domain"
	"guardhouse/pkg/requestcontext"
)

// AsSupervisor attaches a supervisor principal, as the auth middleware would.
func AsSupervisor(req *http.Request, ownerID id.OwnerID) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), ownerID, id.RoleSupervisor))
}

// AsAdmin attaches an administrator principal. Administrators carry no owner id.
func AsAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), 0, id.RoleAdmin))
}

// Principal is middleware that authenticates every request as the given principal.
func Principal(ownerID id.OwnerID, role id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithPrincipal(r.Context(), ownerID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
