package auth

import (
	"time"

	"github.com/pawclub/pawclub-server/internal/domain"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// HasRole reports whether the claims carry the given role.
// Token roles are a snapshot from login; authoritative checks go
// through the store.
func (c *AccessClaims) HasRole(role domain.Role) bool {
	for _, r := range c.Roles {
		if domain.Role(r) == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the token was issued to an admin.
func (c *AccessClaims) IsAdmin() bool {
	return c.HasRole(domain.RoleAdmin)
}

// IsModerator reports whether the token was issued to a moderator.
// Admins count as moderators.
func (c *AccessClaims) IsModerator() bool {
	return c.HasRole(domain.RoleModerator) || c.IsAdmin()
}
