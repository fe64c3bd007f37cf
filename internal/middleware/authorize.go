package middleware

import (
	"net/http"

	"github.com/baharkarakas/insider-transfers/internal/api/httpx"
)

// Authorizer decides whether a role may perform action on object.
type Authorizer interface {
	Authorize(subject, object, action string) error
}

// Authorize allows the request only if the caller's role is permitted the
// action. It must run after AuthMiddleware.Auth.
func Authorize(az Authorizer, object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := FromCtx(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
				return
			}
			if err := az.Authorize(u.Role, object, action); err != nil {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
