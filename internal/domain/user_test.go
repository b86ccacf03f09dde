package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasRole_ValueMembership(t *testing.T) {
	u := &User{Roles: map[string]Role{"r1": RoleModerator}}

	assert.True(t, u.HasRole(RoleModerator))
	assert.False(t, u.HasRole(RoleAdmin))
	assert.True(t, u.HasAnyRole(RoleAdmin, RoleModerator))
	assert.False(t, u.HasAnyRole(RoleAdmin, RoleUser))
}

func TestHasRole_NilAndEmpty(t *testing.T) {
	var u *User
	assert.False(t, u.HasRole(RoleAdmin))
	assert.False(t, u.HasAnyRole(RoleAdmin, RoleModerator))

	empty := &User{}
	assert.False(t, empty.HasRole(RoleUser))
}

func TestIsModerator_AdminCounts(t *testing.T) {
	admin := &User{Roles: map[string]Role{"r1": RoleAdmin}}
	mod := &User{Roles: map[string]Role{"r1": RoleModerator}}
	member := &User{Roles: map[string]Role{"r1": RoleUser}}

	assert.True(t, admin.IsModerator())
	assert.True(t, mod.IsModerator())
	assert.False(t, member.IsModerator())
	assert.True(t, admin.IsAdmin())
	assert.False(t, mod.IsAdmin())
}

func TestMultipleRoleEntries(t *testing.T) {
	u := &User{Roles: map[string]Role{
		"r1": RoleUser,
		"r2": RoleModerator,
	}}

	assert.True(t, u.HasRole(RoleUser))
	assert.True(t, u.HasRole(RoleModerator))
	assert.Len(t, u.RoleValues(), 2)
}

func TestSession_IsExpired(t *testing.T) {
	live := &Session{ExpiresAt: time.Now().Add(time.Hour)}
	dead := &Session{ExpiresAt: time.Now().Add(-time.Hour)}

	assert.False(t, live.IsExpired())
	assert.True(t, dead.IsExpired())
}
