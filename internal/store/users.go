package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/sse"
)

// User Operations
//
// Role grants live under roles/{userID}/{entryID} as their own records,
// not inside the user record. Reads hydrate User.Roles from that subtree
// so a grant or revoke never rewrites the user.

// CreateUser creates a new user with a unique email.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	key := userKey(user.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if exists {
		return ErrUserExists
	}

	// Enforce email uniqueness via the index.
	emailKey := userEmailIndexKey(user.Email)
	taken, err := s.exists(emailKey)
	if err != nil {
		return fmt.Errorf("check email exists: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: email already in use", ErrUserExists)
	}

	roles := user.Roles

	err = s.db.Update(func(txn *badger.Txn) error {
		stored := *user
		stored.Roles = nil
		if err := setInTxn(txn, key, &stored); err != nil {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		for entryID, role := range roles {
			if err := setInTxn(txn, roleKey(user.ID, entryID), role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created", "user_id", user.ID, "email", normalizeEmail(user.Email))
	}

	s.eventEmitter.Emit(sse.NewUserRegisteredEvent(user))
	return nil
}

// GetUser retrieves a user by ID with roles hydrated.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.get(userKey(id), &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles, err := s.GetUserRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

// GetUserByEmail retrieves a user by email address (case-insensitive).
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailIndexKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// UpdateUser updates an existing user. Role grants are managed through
// AddUserRole/RemoveUserRole and ignored here.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	old, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}

	user.Touch()
	emailChanged := normalizeEmail(old.Email) != normalizeEmail(user.Email)

	if emailChanged {
		taken, err := s.exists(userEmailIndexKey(user.Email))
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: email already in use", ErrUserExists)
		}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stored := *user
		stored.Roles = nil
		if err := setInTxn(txn, userKey(user.ID), &stored); err != nil {
			return err
		}

		if emailChanged {
			if err := txn.Delete(userEmailIndexKey(old.Email)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(userEmailIndexKey(user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user updated", "user_id", user.ID)
	}
	return nil
}

// DeleteUser removes a user, their email index, role grants, and sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DeleteAllUserSessions(ctx, id); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}

	rolesPrefix := roleUserPrefix(id)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(userKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(userEmailIndexKey(user.Email)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		var grantKeys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = rolesPrefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		for it.Seek(rolesPrefix); it.ValidForPrefix(rolesPrefix); it.Next() {
			grantKeys = append(grantKeys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range grantKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user deleted", "user_id", id)
	}
	return nil
}

// ListUsers returns all users with roles hydrated.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	prefix := []byte(userPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user domain.User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			})
			if err != nil {
				return fmt.Errorf("unmarshal user: %w", err)
			}
			users = append(users, &user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		roles, err := s.GetUserRoles(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}

	return users, nil
}

// Role Operations

// GetUserRoles returns all role grants for a user, keyed by entry ID.
func (s *Store) GetUserRoles(_ context.Context, userID string) (map[string]domain.Role, error) {
	roles := make(map[string]domain.Role)
	prefix := roleUserPrefix(userID)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			entryID := string(item.Key()[len(prefix):])

			var role domain.Role
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &role)
			})
			if err != nil {
				return fmt.Errorf("unmarshal role %s: %w", entryID, err)
			}
			roles[entryID] = role
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}

	return roles, nil
}

// AddUserRole grants a role to a user under a new entry ID.
func (s *Store) AddUserRole(_ context.Context, userID, entryID string, role domain.Role) error {
	exists, err := s.exists(userKey(userID))
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	if err := s.set(roleKey(userID, entryID), role); err != nil {
		return fmt.Errorf("add user role: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("role granted", "user_id", userID, "entry_id", entryID, "role", string(role))
	}
	return nil
}

// RemoveUserRole revokes a single role grant.
func (s *Store) RemoveUserRole(_ context.Context, userID, entryID string) error {
	key := roleKey(userID, entryID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check role exists: %w", err)
	}
	if !exists {
		return ErrRoleNotFound
	}

	if err := s.delete(key); err != nil {
		return fmt.Errorf("remove user role: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("role revoked", "user_id", userID, "entry_id", entryID)
	}
	return nil
}
