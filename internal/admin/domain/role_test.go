package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"moderator", "admin", "superAdmin"} {
		role, ok := ParseRole(raw)
		require.True(t, ok)
		require.Equal(t, raw, role.String())
	}

	for _, raw := range []string{"", "Admin", "user", "root"} {
		_, ok := ParseRole(raw)
		require.False(t, ok, "%q should not parse", raw)
	}
}

func TestRoleOrdering(t *testing.T) {
	t.Parallel()

	require.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	require.True(t, RoleSuperAdmin.AtLeast(RoleModerator))
	require.True(t, RoleAdmin.AtLeast(RoleModerator))
	require.True(t, RoleAdmin.AtLeast(RoleAdmin))

	require.False(t, RoleModerator.AtLeast(RoleAdmin))
	require.False(t, RoleAdmin.AtLeast(RoleSuperAdmin))

	// Unknown roles rank below everything.
	require.False(t, Role("user").AtLeast(RoleModerator))
	require.False(t, Role("user").IsStaff())
}

func TestRoleGrantable(t *testing.T) {
	t.Parallel()

	require.True(t, RoleAdmin.Grantable())
	require.True(t, RoleModerator.Grantable())
	require.False(t, RoleSuperAdmin.Grantable())
	require.False(t, Role("user").Grantable())
}
