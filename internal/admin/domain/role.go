package domain

// Role is one of a fixed, ordered set of staff privilege levels. The ordering
// matters: RoleSuperAdmin outranks RoleAdmin outranks RoleModerator.
type Role string

const (
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

// StaffRoles is the closed set of roles allowed to hold a session. Accounts
// whose role falls outside this set cannot authenticate or keep existing
// sessions alive.
var StaffRoles = []Role{RoleModerator, RoleAdmin, RoleSuperAdmin}

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleModerator, RoleAdmin, RoleSuperAdmin:
		return Role(s), true
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// level maps a role to its rank in the privilege order. Unknown roles rank
// below every staff role.
func (r Role) level() int {
	switch r {
	case RoleModerator:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

// IsStaff reports whether r belongs to the closed staff set.
func (r Role) IsStaff() bool { return r.level() > 0 }

// AtLeast reports whether r holds privileges equal to or above other.
func (r Role) AtLeast(other Role) bool { return r.level() >= other.level() }

// Grantable reports whether r may be granted through an invite. The highest
// privilege level is never grantable; superAdmins exist only via bootstrap.
func (r Role) Grantable() bool {
	return r == RoleAdmin || r == RoleModerator
}
