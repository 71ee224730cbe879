package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var stateErr *attendance.StateError

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, identity.ErrUnauthorized):
		Forbidden(w, "Not authorized")

	// Input errors
	case errors.Is(err, clock.ErrInvalidTime),
		errors.Is(err, clock.ErrInvalidDate),
		errors.Is(err, clock.ErrInvalidRange),
		errors.Is(err, clock.ErrInvalidHours),
		errors.Is(err, request.ErrInvalidStatus),
		errors.Is(err, identity.ErrInvalidEmail):
		BadRequest(w, err.Error(), nil)

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.As(err, &stateErr):
		Conflict(w, stateErr.Error())

	// Request domain errors
	case errors.Is(err, request.ErrRequestNotFound):
		NotFound(w, "Request not found")
	case errors.Is(err, request.ErrRequestNotPending):
		Conflict(w, "Request already processed")

	// Admin directory errors
	case errors.Is(err, identity.ErrAdminExists):
		Conflict(w, "Admin already exists")
	case errors.Is(err, identity.ErrAdminNotFound):
		NotFound(w, "Admin not found")

	case errors.Is(err, upstream.ErrUnavailable):
		slog.Error("Upstream unavailable", "error", err)
		ServiceUnavailable(w, "Upstream service unavailable, try again later")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
