package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/validator"
)

type IdentityServiceImpl struct {
	identity.AdminRepository
	directory   identity.Directory
	approverIDs []string
}

// NewIdentityService returns the identity service. approverIDs, when set,
// overrides the admin list as the set of request approvers.
func NewIdentityService(adminRepo identity.AdminRepository, directory identity.Directory, approverIDs []string) identity.IdentityService {
	return &IdentityServiceImpl{
		AdminRepository: adminRepo,
		directory:       directory,
		approverIDs:     approverIDs,
	}
}

// Profile implements identity.IdentityService.
func (s *IdentityServiceImpl) Profile(ctx context.Context, userID string) (identity.Profile, error) {
	profile, err := s.directory.Lookup(ctx, userID)
	if err != nil {
		return identity.Profile{}, fmt.Errorf("failed to look up user %s: %w", userID, err)
	}
	if strings.TrimSpace(profile.DisplayName) == "" {
		profile.DisplayName = identity.UnknownName
	}
	return profile, nil
}

// IsAdmin implements identity.IdentityService.
func (s *IdentityServiceImpl) IsAdmin(ctx context.Context, userID string) (bool, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return false, err
	}
	if profile.Email == "" {
		return false, nil
	}

	admins, err := s.AdminRepository.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list admins: %w", err)
	}
	return validator.IsInSliceFold(profile.Email, admins), nil
}

// CanApprove implements identity.IdentityService.
func (s *IdentityServiceImpl) CanApprove(ctx context.Context, userID string) (bool, error) {
	if len(s.approverIDs) > 0 {
		return validator.IsInSlice(userID, s.approverIDs), nil
	}
	return s.IsAdmin(ctx, userID)
}

// ApproverIDs implements identity.IdentityService.
func (s *IdentityServiceImpl) ApproverIDs(ctx context.Context) ([]string, error) {
	if len(s.approverIDs) > 0 {
		return s.approverIDs, nil
	}

	admins, err := s.AdminRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	ids := make([]string, 0, len(admins))
	for _, email := range admins {
		profile, err := s.directory.LookupByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				slog.Warn("Admin has no chat account", "email", email)
				continue
			}
			return nil, fmt.Errorf("failed to look up admin %s: %w", email, err)
		}
		ids = append(ids, profile.ID)
	}
	return ids, nil
}

// ListAdmins implements identity.IdentityService.
func (s *IdentityServiceImpl) ListAdmins(ctx context.Context) ([]string, error) {
	return s.AdminRepository.List(ctx)
}

// AddAdmin implements identity.IdentityService.
func (s *IdentityServiceImpl) AddAdmin(ctx context.Context, actorID, email string) error {
	email, err := s.authorizeAdminChange(ctx, actorID, email)
	if err != nil {
		return err
	}
	if err := s.AdminRepository.Add(ctx, email); err != nil {
		return err
	}
	slog.Info("Admin added", "email", email, "by", actorID)
	return nil
}

// RemoveAdmin implements identity.IdentityService.
func (s *IdentityServiceImpl) RemoveAdmin(ctx context.Context, actorID, email string) error {
	email, err := s.authorizeAdminChange(ctx, actorID, email)
	if err != nil {
		return err
	}
	if err := s.AdminRepository.Remove(ctx, email); err != nil {
		return err
	}
	slog.Info("Admin removed", "email", email, "by", actorID)
	return nil
}

func (s *IdentityServiceImpl) authorizeAdminChange(ctx context.Context, actorID, email string) (string, error) {
	isAdmin, err := s.IsAdmin(ctx, actorID)
	if err != nil {
		return "", err
	}
	if !isAdmin {
		return "", identity.ErrUnauthorized
	}

	email = strings.TrimSpace(email)
	if !validator.IsValidEmail(email) {
		return "", identity.ErrInvalidEmail
	}
	return email, nil
}
