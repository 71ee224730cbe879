package notification

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
)

// RequestSubmitted asks an approver to decide r. The buttons carry the
// request ID.
func RequestSubmitted(recipientID string, r request.Request) Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "*Employee:* %s\n", mention(r.EmployeeID, r.EmployeeName))
	fmt.Fprintf(&b, "*Date:* %s\n", clock.FormatDate(r.Date))
	fmt.Fprintf(&b, "*Hours:* %s", r.Hours)
	if r.Reason != "" {
		fmt.Fprintf(&b, "\n*Reason:* %s", r.Reason)
	}

	return Notification{
		RecipientID: recipientID,
		Type:        TypeRequestSubmitted,
		Title:       fmt.Sprintf("New %s request", r.Type),
		Message:     b.String(),
		Actions: []Action{
			{ID: ActionApprove, Text: "Approve", Value: r.ID, Style: StylePrimary},
			{ID: ActionDeny, Text: "Deny", Value: r.ID, Style: StyleDanger},
		},
	}
}

// RequestDecided tells the requester the outcome of r.
func RequestDecided(r request.Request) Notification {
	verb := "approved"
	if r.Status == request.StatusDenied {
		verb = "denied"
	}

	msg := fmt.Sprintf("Your %s request for %s (%s hours) was %s", r.Type, clock.FormatDate(r.Date), r.Hours, verb)
	switch {
	case validator.IsValidSlackUserID(r.DecidedBy):
		msg += " by " + mention(r.DecidedBy, "")
	case r.DecidedBy != "":
		// decided through the admin API
		msg += " by " + r.DecidedBy
	}
	msg += "."
	if r.DenyReason != "" {
		msg += "\n*Reason:* " + r.DenyReason
	}

	return Notification{
		RecipientID: r.EmployeeID,
		Type:        TypeRequestDecided,
		Title:       fmt.Sprintf("%s request %s", capitalize(string(r.Type)), verb),
		Message:     msg,
	}
}

// MissingClockOut reminds the owner of a that they never clocked out.
func MissingClockOut(a attendance.Attendance) Notification {
	return Notification{
		RecipientID: a.EmployeeID,
		Type:        TypeMissingClockOut,
		Title:       "Don't forget to clock out",
		Message: fmt.Sprintf("You clocked in at %s on %s but have not clocked out yet. Use `/clockout` when you are done.",
			a.ClockIn, clock.FormatDate(a.Date)),
	}
}

// PendingRequests tells an approver how many requests wait for a decision.
func PendingRequests(recipientID string, count int) Notification {
	noun := "requests are"
	if count == 1 {
		noun = "request is"
	}
	return Notification{
		RecipientID: recipientID,
		Type:        TypePendingRequests,
		Title:       "Pending requests",
		Message:     fmt.Sprintf("%d %s waiting for your decision. Use `/pending` to review them.", count, noun),
	}
}

// mention renders a Slack user reference. Records without an ID fall back to
// the plain name.
func mention(id, name string) string {
	switch {
	case id == "":
		return name
	case name == "":
		return "<@" + id + ">"
	default:
		return "<@" + id + "|" + name + ">"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
