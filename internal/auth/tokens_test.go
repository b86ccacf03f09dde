package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawclub/pawclub-server/internal/domain"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)
	return svc
}

func testTokenUser() *domain.User {
	return &domain.User{
		ID:          "user-1",
		DisplayName: "Ana",
		Email:       "ana@example.com",
		Roles: map[string]domain.Role{
			"role-1": domain.RoleModerator,
		},
	}
}

func TestNewTokenService_InvalidKey(t *testing.T) {
	_, err := NewTokenService("too-short", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("z", 64), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateAccessToken(testTokenUser())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.HasRole(domain.RoleModerator))
	assert.False(t, claims.IsAdmin())
	assert.True(t, claims.IsModerator())
}

func TestVerifyAccessToken_WrongKey(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateAccessToken(testTokenUser())
	require.NoError(t, err)

	otherKey := strings.Repeat("ab", 32)
	other, err := NewTokenService(otherKey, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc, err := NewTokenService(testKeyHex, -time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(testTokenUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestRefreshToken_HashIsDeterministic(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Hashing is deterministic and never echoes the token
	h1 := HashRefreshToken(token)
	h2 := HashRefreshToken(token)
	assert.Equal(t, h1, h2)
	assert.NotContains(t, h1, token)
	assert.Len(t, h1, 64) // sha256 hex

	// Distinct tokens hash differently
	other, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, HashRefreshToken(token), HashRefreshToken(other))
}

func TestPasswordHash_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Invalid(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("x", 2048))
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionBlob_RoundTrip(t *testing.T) {
	user := testTokenUser()
	expires := time.Now().Add(time.Hour)

	blob := NewSessionBlob(user, expires)
	encoded, err := blob.Encode()
	require.NoError(t, err)
	assert.NotContains(t, encoded, "ana@example.com", "blob must be encoded, not plaintext")

	decoded, err := DecodeSessionBlob(encoded)
	require.NoError(t, err)
	assert.Equal(t, "user-1", decoded.UserID)
	assert.Equal(t, "Ana", decoded.DisplayName)
	assert.Contains(t, decoded.Roles, string(domain.RoleModerator))
	assert.False(t, decoded.IsStale())
}

func TestDecodeSessionBlob_Invalid(t *testing.T) {
	_, err := DecodeSessionBlob("!!!not-base64!!!")
	assert.Error(t, err)
}
