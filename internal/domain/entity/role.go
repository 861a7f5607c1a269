// Package entity contains the core business objects of the project.
package entity

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleUser indicates a regular user role.
	RoleUser Role = "user"
	// RoleAdmin indicates an administrator role.
	RoleAdmin Role = "admin"
)

// Scope is a named permission carried in token claims and checked by the
// authorization middleware.
type Scope = string

const (
	// ScopeAdmin grants access to the admin user-management endpoints.
	ScopeAdmin Scope = "admin"
	// ScopeReadProfile grants read access to the caller's own profile.
	ScopeReadProfile Scope = "read:profile"
	// ScopeWriteProfile grants write access to the caller's own profile.
	ScopeWriteProfile Scope = "write:profile"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Scopes returns the fixed scope set for the role. The mapping is re-derived
// fresh at every token issuance and never persisted.
func (r Role) Scopes() []Scope {
	if r == RoleAdmin {
		return []Scope{ScopeAdmin, ScopeReadProfile, ScopeWriteProfile}
	}

	return []Scope{ScopeReadProfile}
}
