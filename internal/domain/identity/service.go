package identity

import (
	"context"
)

type IdentityService interface {
	Profile(ctx context.Context, userID string) (Profile, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)

	// CanApprove reports whether userID may decide requests.
	CanApprove(ctx context.Context, userID string) (bool, error)

	// ApproverIDs lists the user IDs that receive approval requests.
	ApproverIDs(ctx context.Context) ([]string, error)

	ListAdmins(ctx context.Context) ([]string, error)
	AddAdmin(ctx context.Context, actorID, email string) error
	RemoveAdmin(ctx context.Context, actorID, email string) error
}
