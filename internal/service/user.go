package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pawclub/pawclub-server/internal/auth"
	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/store"
)

// UserService handles member profile operations.
type UserService struct {
	store          *store.Store
	sessionService *SessionService
	logger         *slog.Logger
}

// NewUserService creates a new user profile service.
func NewUserService(store *store.Store, sessionService *SessionService, logger *slog.Logger) *UserService {
	return &UserService{
		store:          store,
		sessionService: sessionService,
		logger:         logger,
	}
}

// GetUser returns a user's profile by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, domainerrors.NotFound("user not found")
	}
	return user, err
}

// UpdateProfileRequest contains partial profile updates.
// Nil pointers leave the corresponding field unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url,max=2000"`
}

// UpdateProfile changes a user's display name or avatar.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return user, nil
}

// ChangePasswordRequest carries the current and replacement passwords.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=1024"`
}

// ChangePassword replaces a user's password after verifying the current
// one, then revokes every session so stolen refresh tokens die with it.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := validate.Validate(req); err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return err
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return domainerrors.InvalidCredentials("current password is incorrect")
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = newHash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.sessionService.DeleteUserSessions(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change",
			"user_id", userID,
			"error", err,
		)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}
