package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/id"
	"github.com/pawclub/pawclub-server/internal/store"
)

// AdminService handles member administration: listing, removal, and
// role grants. Every operation here sits behind the admin role gate in
// the API layer.
type AdminService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store *store.Store, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:  store,
		logger: logger,
	}
}

// ListUsers returns every registered member with roles hydrated.
func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

// DeleteUser removes a member, their sessions, and their role grants.
// An admin cannot delete their own account; demote first.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return domainerrors.Validation("you cannot delete your own account")
	}

	err := s.store.DeleteUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return domainerrors.NotFound("user not found")
	}
	if err != nil {
		return err
	}

	s.logger.Info("user deleted",
		"user_id", userID,
		"actor_id", actorID,
	)
	return nil
}

// AssignRole grants a role to a user and returns the role entry ID.
// Granting a role the user already holds creates a second entry; the
// membership check is by value, so this is harmless and lets each grant
// be revoked independently.
func (s *AdminService) AssignRole(ctx context.Context, actorID, userID string, role domain.Role) (string, error) {
	if !role.IsValid() {
		return "", domainerrors.Validationf("unknown role %q", role)
	}

	entryID, err := id.Generate("role")
	if err != nil {
		return "", fmt.Errorf("generate role entry ID: %w", err)
	}

	if err := s.store.AddUserRole(ctx, userID, entryID, role); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", domainerrors.NotFound("user not found")
		}
		return "", err
	}

	s.logger.Info("role assigned",
		"user_id", userID,
		"role", string(role),
		"entry_id", entryID,
		"actor_id", actorID,
	)
	return entryID, nil
}

// RevokeRole removes one role grant by its entry ID.
func (s *AdminService) RevokeRole(ctx context.Context, actorID, userID, entryID string) error {
	err := s.store.RemoveUserRole(ctx, userID, entryID)
	if errors.Is(err, store.ErrRoleNotFound) {
		return domainerrors.NotFound("role entry not found")
	}
	if err != nil {
		return err
	}

	s.logger.Info("role revoked",
		"user_id", userID,
		"entry_id", entryID,
		"actor_id", actorID,
	)
	return nil
}
