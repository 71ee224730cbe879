package identity

import (
	"context"
)

// Directory resolves chat users. Backed by Slack users.info.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Profile, error)
	LookupByEmail(ctx context.Context, email string) (Profile, error)
}

// AdminRepository holds the admin email list.
type AdminRepository interface {
	List(ctx context.Context) ([]string, error)

	// Add returns ErrAdminExists when email is already listed.
	Add(ctx context.Context, email string) error

	// Remove returns ErrAdminNotFound when email is not listed.
	Remove(ctx context.Context, email string) error
}
