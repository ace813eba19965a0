package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse/gatehouse/internal/rbac"
	"github.com/gatehouse/gatehouse/internal/shared"
	_ "github.com/gatehouse/gatehouse/testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(identity *shared.Identity) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if identity != nil {
		r = r.WithContext(shared.ContextWithIdentity(r.Context(), identity))
	}
	return r
}

func userIdentity() *shared.Identity {
	return &shared.Identity{
		PrincipalID: 7,
		Email:       "user@x.com",
		Authorities: []string{shared.AuthorityUser, shared.PrivReadItem},
	}
}

func adminIdentity() *shared.Identity {
	return &shared.Identity{
		PrincipalID: 1,
		Email:       "admin@x.com",
		Authorities: []string{shared.AuthorityAdmin, shared.PrivReadItem, shared.PrivWriteItem},
	}
}

func TestRequireAuthenticated(t *testing.T) {
	handler := rbac.Middleware{}.RequireAuthenticated(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(userIdentity()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthorityStatusCodes(t *testing.T) {
	handler := rbac.Middleware{}.RequireAuthority(shared.AuthorityAdmin)(okHandler())

	// Anonymous is a 401, never a 403.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authenticated without the authority is a 403.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(userIdentity()))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(adminIdentity()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorityComparisonIsExact(t *testing.T) {
	handler := rbac.Middleware{}.RequireAuthority(shared.AuthorityAdmin)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(&shared.Identity{
		PrincipalID: 9,
		Email:       "casey@x.com",
		Authorities: []string{"admin", "Admin"},
	}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyAuthority(t *testing.T) {
	handler := rbac.Middleware{}.RequireAnyAuthority(shared.PrivWriteItem, shared.AuthorityAdmin)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(userIdentity()))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(adminIdentity()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, rbac.Require(ctx, shared.PrivReadItem), shared.ErrUnauthenticated)

	ctx = shared.ContextWithIdentity(ctx, userIdentity())
	assert.NoError(t, rbac.Require(ctx, shared.PrivReadItem))
	assert.ErrorIs(t, rbac.Require(ctx, shared.PrivWriteItem), shared.ErrForbidden)
}

func TestAuthoritiesHas(t *testing.T) {
	set := rbac.Authorities{"USER", "priv-read-item"}
	assert.True(t, set.Has("USER"))
	assert.False(t, set.Has("ADMIN"))
	assert.True(t, set.HasAny("ADMIN", "priv-read-item"))
	assert.False(t, set.HasAny("ADMIN", "priv-write-item"))
}
