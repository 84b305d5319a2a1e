package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princinho/sahoaccounts/models"
)

// ErrWrongPassword is returned by ChangePassword when the current
// password does not match. Unlike login there is no enumeration risk:
// the caller is already authenticated.
var ErrWrongPassword = errors.New("current password is incorrect")

// UpdateInfo changes profile fields and rewrites the cached session
// copy so subsequent authenticated reads see the new values.
func (s *AuthService) UpdateInfo(ctx context.Context, userID string, params UpdateUserParams) (*models.User, error) {
	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		params.Email = &email
		if existing, err := s.store.FindByEmail(ctx, email); err == nil && existing.ID.Hex() != userID {
			return nil, ErrDuplicateEmail
		} else if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("check existing email: %w", err)
		}
	}

	user, err := s.store.UpdateInfo(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshSessionRecord(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// ends the session. The client must log in again with the new password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.store.ComparePassword(user, current) {
		return ErrWrongPassword
	}
	if err := s.store.UpdatePassword(ctx, userID, next); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

// ListUsers returns every account. The route layer restricts this to
// admins.
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.List(ctx)
}

// UpdateAvatar records the new avatar reference and refreshes the
// session copy. Object upload and cleanup happen at the controller.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID string, avatar *models.Avatar) (*models.User, error) {
	user, err := s.store.UpdateAvatar(ctx, userID, avatar)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshSessionRecord(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
