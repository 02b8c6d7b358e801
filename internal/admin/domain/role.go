package domain

// Role names relevant to privileged operations. Other roles may exist in the
// backend but are never consulted here.
const (
	// RoleAdmin may invite users and delete non-privileged accounts.
	RoleAdmin = "admin"

	// RoleTkMaster is the highest privilege level and the only role that may
	// remove administrators.
	RoleTkMaster = "tk_master"
)

// PrivilegedRoles is the filter used when deciding whether an account is
// allowed to manage users, or is itself protected from plain admins.
var PrivilegedRoles = []string{RoleAdmin, RoleTkMaster}

// HasRole reports whether the given role name is present in roles.
func HasRole(roles []string, name string) bool {
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}
