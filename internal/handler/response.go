package handler

// RESPONSE HELPERS:
// Every view in this client shows failures inline, next to the form that
// caused them. These helpers turn a domain error into the two things a view
// needs: an HTTP status for the re-rendered page and a human-readable message.
//
// The service and gateway layers return *apperror.AppError values whose
// Message is already safe to show. Anything else (a bug, a closed database)
// is logged by the caller and replaced with a generic message here.
//
// errors.Is() UNWRAPPING:
// errors.Is(err, target) walks the entire error chain (via Unwrap())
// to see if `target` appears anywhere. This works because:
//
//	service returns: fmt.Errorf("submitting review: %w", apperror.Gateway(...))
//	which wraps:     AppError{Err: ErrGateway, Message: "..."}
//	errors.Is walks: outer error → AppError → ErrGateway ✓ match!

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/mentorlink/internal/apperror"
)

const genericMessage = "something went wrong, please try again"

// statusFor maps a domain error to the status of the re-rendered page.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest // 400
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized // 401
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden // 403
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, apperror.ErrInvalidState):
		return http.StatusConflict // 409
	case errors.Is(err, apperror.ErrGateway):
		return http.StatusBadGateway // 502
	}
	return http.StatusInternalServerError
}

// messageFor returns the inline message for err.
// NEVER expose internal error details: only AppError messages are shown.
func messageFor(err error) string {
	return apperror.Message(err, genericMessage)
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// You MUST set headers and status code BEFORE writing the body.
// Once you call w.Write() (which Encode does internally), the headers are sent.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// seeOther is the redirect used after every successful POST, so a browser
// refresh re-requests the page instead of repeating the action.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
