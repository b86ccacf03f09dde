package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawclub/pawclub-server/internal/auth"
	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/store"
)

const testAuthKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setupAuthServices(t *testing.T) (*AuthService, *SessionService, *store.Store) {
	t.Helper()

	st := setupTestStore(t)
	tokens, err := auth.NewTokenService(testAuthKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := NewSessionService(st, tokens, testLogger())
	authSvc := NewAuthService(st, tokens, sessions, testLogger())
	return authSvc, sessions, st
}

func testRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Email:       "ana@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Ana",
	}
}

func TestRegister_CreatesUserAndSession(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)

	resp, err := authSvc.Register(context.Background(), testRegisterRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.User.ID)
	assert.True(t, resp.User.HasRole(domain.RoleUser), "new members get the default role")
	assert.False(t, resp.User.IsAdmin())
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionBlob)
	assert.Equal(t, "Bearer", resp.TokenType)

	blob, err := auth.DecodeSessionBlob(resp.SessionBlob)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, blob.UserID)
	assert.Equal(t, "Ana", blob.DisplayName)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	req := testRegisterRequest()
	req.DisplayName = "Other Ana"
	_, err = authSvc.Register(ctx, req)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, domainErr.Code)
}

func TestRegister_WeakPassword(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)

	req := testRegisterRequest()
	req.Password = "short"
	_, err := authSvc.Register(context.Background(), req)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestLogin_Success(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	resp, err := authSvc.Login(ctx, LoginRequest{
		Email:    "ana@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.False(t, resp.User.LastLoginAt.IsZero())
}

func TestLogin_WrongPassword(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	_, err = authSvc.Login(ctx, LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong-password",
	})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, domainErr.Code)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)

	_, err := authSvc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever-password",
	})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, domainErr.Code,
		"unknown email and wrong password must be indistinguishable")
}

func TestRefreshTokens_RotatesRefreshToken(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)
	ctx := context.Background()

	registered, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	refreshed, err := authSvc.RefreshTokens(ctx, RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)

	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, registered.SessionID, refreshed.SessionID, "rotation keeps the session")

	// The old refresh token is dead after rotation.
	_, err = authSvc.RefreshTokens(ctx, RefreshRequest{RefreshToken: registered.RefreshToken})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeTokenExpired, domainErr.Code)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)
	ctx := context.Background()

	registered, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, registered.SessionID))

	_, err = authSvc.RefreshTokens(ctx, RefreshRequest{RefreshToken: registered.RefreshToken})
	require.Error(t, err)
}

func TestVerifyAccessToken_ReflectsRoleChanges(t *testing.T) {
	authSvc, _, st := setupAuthServices(t)
	admin := NewAdminService(st, testLogger())
	ctx := context.Background()

	registered, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	user, claims, err := authSvc.VerifyAccessToken(ctx, registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.False(t, user.IsAdmin())

	// Promotion shows up on the next verification without reissuing the token.
	_, err = admin.AssignRole(ctx, "actor", user.ID, domain.RoleAdmin)
	require.NoError(t, err)

	user, _, err = authSvc.VerifyAccessToken(ctx, registered.AccessToken)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	authSvc, _, _ := setupAuthServices(t)

	_, _, err := authSvc.VerifyAccessToken(context.Background(), "v4.local.garbage")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainErr.Code)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	authSvc, sessions, st := setupAuthServices(t)
	users := NewUserService(st, sessions, testLogger())
	ctx := context.Background()

	registered, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	err = users.ChangePassword(ctx, registered.User.ID, ChangePasswordRequest{
		CurrentPassword: "correct-horse-battery",
		NewPassword:     "even-more-correct-horse",
	})
	require.NoError(t, err)

	// Old refresh token died with the session purge.
	_, err = authSvc.RefreshTokens(ctx, RefreshRequest{RefreshToken: registered.RefreshToken})
	require.Error(t, err)

	// New password works, old one doesn't.
	_, err = authSvc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse-battery"})
	require.Error(t, err)
	_, err = authSvc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "even-more-correct-horse"})
	require.NoError(t, err)
}

func TestAdmin_RoleLifecycle(t *testing.T) {
	authSvc, _, st := setupAuthServices(t)
	admin := NewAdminService(st, testLogger())
	ctx := context.Background()

	registered, err := authSvc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)
	userID := registered.User.ID

	entryID, err := admin.AssignRole(ctx, "actor", userID, domain.RoleModerator)
	require.NoError(t, err)

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsModerator())

	require.NoError(t, admin.RevokeRole(ctx, "actor", userID, entryID))

	users, err = admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.False(t, users[0].IsModerator())
}

func TestAdmin_InvalidRole(t *testing.T) {
	_, _, st := setupAuthServices(t)
	admin := NewAdminService(st, testLogger())

	_, err := admin.AssignRole(context.Background(), "actor", "user-1", domain.Role("superuser"))
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestAdmin_CannotDeleteSelf(t *testing.T) {
	_, _, st := setupAuthServices(t)
	admin := NewAdminService(st, testLogger())

	err := admin.DeleteUser(context.Background(), "user-1", "user-1")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}
