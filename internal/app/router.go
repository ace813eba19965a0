package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/items"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/platform/httpx"
	"github.com/gatehouse/gatehouse/internal/rbac"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Sessions     *session.Store
	AuthHandler  *auth.Handler
	ItemsHandler *items.Handler
	RBAC         rbac.Middleware
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with Gatehouse defaults. Route rules
// are evaluated in mounting order: public endpoints first, then
// authority-specific groups, with a catch-all that requires authentication.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Sessions: params.Sessions,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Public auth endpoints. Login carries its own tighter rate limit on
	// top of the global one.
	r.Post("/register", params.AuthHandler.Register)
	r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/login", params.AuthHandler.Login)
	r.Post("/logout", params.AuthHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(params.RBAC.RequireAuthenticated)
		r.Get("/user", params.AuthHandler.User)
	})
	r.Group(func(r chi.Router) {
		r.Use(params.RBAC.RequireAuthority(shared.AuthorityAdmin))
		r.Get("/admin", params.AuthHandler.Admin)
	})

	params.ItemsHandler.MountRoutes(r)

	// Catch-all rule: anything unmatched still requires authentication.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if shared.IdentityFromContext(req.Context()) == nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})

	return r
}
