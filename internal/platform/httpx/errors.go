package httpx

import (
	"errors"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses.
//
// Credential and authorization failures are reduced to bare status codes:
// the body never states which check failed.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrSessionLimit):
		Problem(w, http.StatusConflict, "Session Limit Exceeded", err.Error())
	case errors.Is(err, shared.ErrRoleNotFound):
		Problem(w, http.StatusNotFound, "Role Not Found", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrStoreUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
