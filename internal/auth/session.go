package auth

import (
	"encoding/base64"
	"encoding/json/v2"
	"fmt"
	"time"

	"github.com/pawclub/pawclub-server/internal/domain"
)

// SessionBlob is the client-side session cache payload returned at login.
// Clients persist it locally and restore their UI state from it without a
// round trip. It is base64-encoded JSON: obfuscation against shoulder
// surfing, not a security boundary. The server never trusts its contents;
// every request is still authorized from the access token.
type SessionBlob struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Roles       []string  `json:"roles"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewSessionBlob builds a session blob snapshot for a user.
func NewSessionBlob(user *domain.User, expiresAt time.Time) SessionBlob {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.RoleValues() {
		roles = append(roles, string(r))
	}
	return SessionBlob{
		UserID:      user.ID,
		DisplayName: user.Name(),
		Email:       user.Email,
		AvatarURL:   user.AvatarURL,
		Roles:       roles,
		ExpiresAt:   expiresAt,
	}
}

// Encode serializes the blob as base64(JSON).
func (b SessionBlob) Encode() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal session blob: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeSessionBlob parses a base64(JSON) session blob.
func DecodeSessionBlob(encoded string) (*SessionBlob, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode session blob: %w", err)
	}
	var blob SessionBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("unmarshal session blob: %w", err)
	}
	return &blob, nil
}

// IsStale reports whether the blob's snapshot has outlived its expiry.
func (b *SessionBlob) IsStale() bool {
	return time.Now().After(b.ExpiresAt)
}
