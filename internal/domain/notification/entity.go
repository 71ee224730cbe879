package notification

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeRequestSubmitted NotificationType = "request_submitted"
	TypeRequestDecided   NotificationType = "request_decided"
	TypeMissingClockOut  NotificationType = "missing_clock_out"
	TypePendingRequests  NotificationType = "pending_requests"
)

// Action ids carried by interactive buttons.
const (
	ActionApprove = "approve_request"
	ActionDeny    = "deny_request"
)

type ActionStyle string

const (
	StyleDefault ActionStyle = ""
	StylePrimary ActionStyle = "primary"
	StyleDanger  ActionStyle = "danger"
)

// Action is a button attached to a notification.
type Action struct {
	ID    string
	Text  string
	Value string
	Style ActionStyle
}

// Notification is a direct message to one recipient.
type Notification struct {
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Actions     []Action
}
