package notification

import "errors"

// Notification domain errors
var (
	ErrNoRecipient = errors.New("notification has no recipient")
	ErrQueueFull   = errors.New("notification queue is full")
	ErrStopped     = errors.New("notification service stopped")
)
