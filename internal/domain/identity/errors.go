package identity

import "errors"

// Identity domain errors
var (
	ErrUnauthorized  = errors.New("you are not authorized to use this command")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrAdminExists   = errors.New("admin already exists")
	ErrAdminNotFound = errors.New("admin not found")
)
