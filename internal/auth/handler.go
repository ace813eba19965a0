package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/gatehouse/gatehouse/internal/platform/httpx"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
)

// LoginRecorder records successful logins for the audit trail. Recording is
// best effort: failures are logged, never surfaced to the client.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, principalID int64, email, ip, ua string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	sessions    *session.Store
	recorder    LoginRecorder
	validator   *validator.Validate
	tokenHeader string
}

// NewHandler constructs a Handler instance. recorder may be nil.
func NewHandler(logger *slog.Logger, service *Service, sessions *session.Store, recorder LoginRecorder, tokenHeader string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		sessions:    sessions,
		recorder:    recorder,
		validator:   validator.New(),
		tokenHeader: tokenHeader,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
}

// Login authenticates credentials and binds the identity to a new session.
// The token is returned in the configured header and the response body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	identity, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	token, err := h.sessions.Create(r.Context(), identity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if h.recorder != nil {
		if err := h.recorder.RecordLogin(r.Context(), identity.PrincipalID, identity.Email, r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Warn("record login", slog.Any("error", err))
		}
	}

	w.Header().Set(h.tokenHeader, token)
	httpx.JSON(w, http.StatusOK, loginResponse{SessionID: token})
}

// Register creates an account under a seeded role and acknowledges with a
// bare boolean.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.Register(r.Context(), req.Email, req.Password, RoleName(req.Role)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, true)
}

// Logout invalidates the presented session token. It reports success even
// when the token was already absent.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(h.tokenHeader)
	if token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			h.logger.Warn("logout delete session", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, true)
}

// User greets any authenticated identity.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if id == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Welcome User " + id.Email})
}

// Admin greets identities holding the ADMIN authority.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if id == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Welcome Admin " + id.Email})
}
