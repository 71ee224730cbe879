package request

import (
	"context"
)

type RequestService interface {
	// Submit supersedes any PENDING request for the same type, employee and
	// date, stores a new PENDING one and notifies approvers.
	Submit(ctx context.Context, req SubmitRequest) (Request, error)

	// Decide approves or denies a PENDING request. Approval copies the hours
	// onto the attendance record when one exists.
	Decide(ctx context.Context, req DecideRequest) (Request, error)

	Get(ctx context.Context, id string) (Request, error)
	ListPending(ctx context.Context) ([]Request, error)
	List(ctx context.Context, filter Filter) ([]Request, error)
}
