package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/slackapi"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
)

// usageError reports a command called with the wrong arguments.
type usageError struct {
	usage string
}

func (e *usageError) Error() string {
	return "usage: " + e.usage
}

func usage(u string) error {
	return &usageError{usage: u}
}

const genericFailure = "Something went wrong, please try again later."

// replyForError turns a failure into the private reply the caller sees.
// Unrecognized errors are logged and answered generically.
func replyForError(command string, err error) slackapi.Reply {
	var (
		usageErr   *usageError
		stateErr   *attendance.StateError
		validation validator.ValidationErrors
	)

	var text string
	switch {
	case errors.As(err, &usageErr):
		text = "Usage: `" + usageErr.usage + "`"
	case errors.As(err, &validation):
		msgs := make([]string, 0, len(validation))
		for _, v := range validation {
			msgs = append(msgs, v.Message)
		}
		text = "⚠️ " + capitalize(strings.Join(msgs, ", ")) + "."
	case errors.Is(err, clock.ErrInvalidTime):
		text = "Please enter time as `h:mm AM/PM` (example: 7:30 AM)."
	case errors.Is(err, clock.ErrRangeTooLong):
		text = fmt.Sprintf("⚠️ A date range can cover at most %d days.", clock.MaxRangeDays)
	case errors.Is(err, clock.ErrInvalidDate), errors.Is(err, clock.ErrInvalidRange):
		text = "Please provide a date or range (MM/DD/YYYY or MM/DD/YYYY-MM/DD/YYYY)."
	case errors.Is(err, clock.ErrInvalidHours):
		text = "Please enter hours as a number like 2, 1.5 or 1:30."
	case errors.As(err, &stateErr):
		text = stateReply(stateErr)
	case errors.Is(err, attendance.ErrNotClockedIn):
		text = "⚠️ You have not clocked in today. Use `/clockin` first."
	case errors.Is(err, identity.ErrUnauthorized):
		text = "⛔ You are not authorized to use this command."
	case errors.Is(err, identity.ErrInvalidEmail):
		text = "Please provide a valid email address."
	case errors.Is(err, identity.ErrAdminExists):
		text = "That email is already an admin."
	case errors.Is(err, identity.ErrAdminNotFound):
		text = "That email is not an admin."
	case errors.Is(err, request.ErrRequestNotPending):
		text = "This request has already been processed."
	case errors.Is(err, request.ErrRequestNotFound):
		text = "⚠️ Request not found."
	case errors.Is(err, upstream.ErrUnavailable):
		slog.Error("Upstream unavailable", "command", command, "error", err)
		text = "⚠️ The service is not responding right now, please try again later."
	default:
		slog.Error("Command failed", "command", command, "error", err)
		text = genericFailure
	}
	return slackapi.Reply{Text: text}
}

func stateReply(err *attendance.StateError) string {
	switch {
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		return fmt.Sprintf("⚠️ You already clocked in at *%s*.", err.Time)
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		return fmt.Sprintf("⚠️ You already clocked out at *%s*.", err.Time)
	case errors.Is(err, attendance.ErrClockOutBeforeClockIn):
		return fmt.Sprintf("⚠️ Clock-out time must not be before the clock-in time (*%s*).", err.Time)
	}
	return genericFailure
}
