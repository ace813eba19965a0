package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/platform/httpx"
	"github.com/gatehouse/gatehouse/internal/shared"
)

// Middleware wires route-level authorization rules for HTTP handlers.
// No identity on a protected route yields 401; a resolved identity missing
// the required authority yields 403. Neither response says which check
// failed beyond the status code.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated ensures a resolved identity is present.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.IdentityFromContext(r.Context()) == nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority ensures the identity's authority set contains name.
func (m Middleware) RequireAuthority(name string) func(http.Handler) http.Handler {
	return m.RequireAnyAuthority(name)
}

// RequireAnyAuthority ensures the identity holds at least one of the names.
func (m Middleware) RequireAnyAuthority(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Require(r.Context(), names...); err != nil {
				if m.Logger != nil {
					m.Logger.Debug("authorization denied",
						slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require evaluates an any-of authority check against the identity resolved
// in ctx. Privileged operations call it immediately before side effects.
func Require(ctx context.Context, names ...string) error {
	id := shared.IdentityFromContext(ctx)
	if id == nil {
		return shared.ErrUnauthenticated
	}
	if !Authorities(id.Authorities).HasAny(names...) {
		return shared.ErrForbidden
	}
	return nil
}
