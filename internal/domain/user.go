package domain

import "time"

// Role represents one permission level a user can hold.
type Role string

const (
	// RoleAdmin grants full access to the admin panel and catalog management.
	RoleAdmin Role = "admin"
	// RoleModerator grants moderation access without catalog management.
	RoleModerator Role = "moderator"
	// RoleUser is the default role for registered members.
	RoleUser Role = "user"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// User represents a registered club member.
//
// Roles is a map of role-entry ID to role value. Role checks are value
// membership over the map, not keyed lookup: a user "has" a role when any
// entry carries that role string. Multiple entries allow multiple roles.
type User struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	Email        string          `json:"email"`
	AvatarURL    string          `json:"avatar_url,omitempty"`
	PasswordHash string          `json:"password_hash,omitempty"` // stored hashed, filtered from API responses
	Roles        map[string]Role `json:"roles,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	LastLoginAt  time.Time       `json:"last_login_at,omitzero"`
}

// HasRole reports whether any role entry carries the given role.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		for _, want := range roles {
			if r == want {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// IsModerator reports whether the user can moderate (admins moderate too).
func (u *User) IsModerator() bool {
	return u.HasAnyRole(RoleAdmin, RoleModerator)
}

// RoleValues returns the role values the user holds, in no particular order.
func (u *User) RoleValues() []Role {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	roles := make([]Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r)
	}
	return roles
}

// Touch updates the UpdatedAt timestamp to the current time.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// Name returns the best available display name for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Session is one refresh-token session for a logged-in user. The refresh
// token itself is never stored; only its hash is.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session's refresh token has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
