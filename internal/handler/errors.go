package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/localmarket/internal/domain"
)

// writeServiceError maps a service error onto an HTTP status. Unknown errors
// are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Could not validate credentials.")
	case errors.Is(err, domain.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "Incorrect email or password.")
	case errors.Is(err, domain.ErrDuplicateLoginHandle):
		writeError(w, http.StatusConflict, "Email already registered.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrSelfReviewForbidden):
		writeError(w, http.StatusBadRequest, "You cannot review yourself.")
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "User not found.")
	default:
		slog.ErrorContext(r.Context(), op, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}
