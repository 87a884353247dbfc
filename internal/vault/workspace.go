package vault

// Workspace kinds. A personal workspace has exactly one member and never
// carries wrapped keys for anyone else; sharing it means migrating its
// projects to a new shared workspace.
const (
	KindPersonal = "personal"
	KindShared   = "shared"
)

// Member roles within a shared workspace.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleMember   = "member"
	RoleReadOnly = "read_only"
)

// Member statuses.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// ValidRole reports whether role names a known membership role.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleReadOnly:
		return true
	}
	return false
}

// CanManageMembers reports whether a role may invite or remove members.
func CanManageMembers(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanWrite reports whether a role may create or update secrets.
func CanWrite(role string) bool {
	return role != RoleReadOnly
}
