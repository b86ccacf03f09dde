package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawclub/pawclub-server/internal/domain"
)

func testSession(id, userID, tokenHash string, ttl time.Duration) *domain.Session {
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestCreateSession(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("sess-1", "user-1", "hashed_token", 24*time.Hour)
	require.NoError(t, s.CreateSession(ctx, session))

	retrieved, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", retrieved.UserID)
	assert.Equal(t, "hashed_token", retrieved.TokenHash)
}

func TestCreateSession_DuplicateID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "token_a", time.Hour)))

	err := s.CreateSession(ctx, testSession("sess-1", "user-1", "token_b", time.Hour))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetSession_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetSession(context.Background(), "sess-ghost")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSession_Expired(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "token", -time.Minute)))

	_, err := s.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetSessionByToken(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "token_hash", time.Hour)))

	retrieved, err := s.GetSessionByToken(ctx, "token_hash")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", retrieved.ID)

	_, err = s.GetSessionByToken(ctx, "wrong_hash")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateSession_TokenRotation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "old_hash", time.Hour)))

	rotated := testSession("sess-1", "user-1", "new_hash", time.Hour)
	require.NoError(t, s.UpdateSession(ctx, rotated))

	// New token resolves, old one doesn't
	retrieved, err := s.GetSessionByToken(ctx, "new_hash")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", retrieved.ID)

	_, err = s.GetSessionByToken(ctx, "old_hash")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "token", time.Hour)))
	require.NoError(t, s.DeleteSession(ctx, "sess-1"))

	_, err := s.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting twice is a no-op
	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
}

func TestListUserSessions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "t1", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-2", "user-1", "t2", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-3", "user-2", "t3", time.Hour)))

	// Expired sessions are filtered out
	require.NoError(t, s.CreateSession(ctx, testSession("sess-4", "user-1", "t4", -time.Minute)))

	sessions, err := s.ListUserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestDeleteAllUserSessions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "t1", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-2", "user-1", "t2", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-3", "user-2", "t3", time.Hour)))

	require.NoError(t, s.DeleteAllUserSessions(ctx, "user-1"))

	sessions, err := s.ListUserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Other users untouched
	sessions, err = s.ListUserSessions(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestDeleteExpiredSessions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("sess-1", "user-1", "t1", time.Hour)))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-2", "user-1", "t2", -time.Minute)))
	require.NoError(t, s.CreateSession(ctx, testSession("sess-3", "user-2", "t3", -time.Hour)))

	removed, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
}
