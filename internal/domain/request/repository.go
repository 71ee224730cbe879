package request

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
)

type RequestRepository interface {
	Create(ctx context.Context, req Request) error

	// GetByID returns ErrRequestNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (Request, error)

	// FindPending returns the PENDING requests of one type for employee on date.
	FindPending(ctx context.Context, kind attendance.AdjustmentType, employee attendance.Employee, date civil.Date) ([]Request, error)

	// CreateSuperseding stores req and then persists superseded, which the
	// caller has already marked OVERWRITTEN. A failure to store req leaves
	// superseded untouched.
	CreateSuperseding(ctx context.Context, req Request, superseded []Request) error

	// UpdateStatuses persists the status and decision fields of each request.
	UpdateStatuses(ctx context.Context, reqs []Request) error

	// List returns the matching requests in creation order.
	List(ctx context.Context, filter Filter) ([]Request, error)
}
