package request

import "errors"

// Request domain errors
var (
	ErrRequestNotFound   = errors.New("request not found")
	ErrRequestNotPending = errors.New("request has already been processed")
	ErrInvalidStatus     = errors.New("invalid request status")

	// ErrNotifyFailed is returned alongside a saved request when approvers
	// could not be reached.
	ErrNotifyFailed = errors.New("failed to notify approvers")
)
