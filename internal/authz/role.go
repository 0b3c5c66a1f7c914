package authz

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles understood by the platform, totally
// ordered: member < admin < super_admin. The set is code-defined; adding a
// role means extending the rank table and every exhaustive switch over Role.
type Role string

const (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleRanks is the literal rank table backing the total order.
var roleRanks = map[Role]int{
	RoleMember:     1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole normalizes a stored role value. Unknown values are rejected so a
// corrupted row can neither grant nor silently downgrade access.
func ParseRole(value string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(value)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, value)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether the role subsumes required in the hierarchy.
// Unknown roles on either side never satisfy anything.
func (r Role) AtLeast(required Role) bool {
	have, ok := roleRanks[r]
	if !ok {
		return false
	}
	want, ok := roleRanks[required]
	if !ok {
		return false
	}
	return have >= want
}

// IsSuper reports whether the role is the global super role that bypasses
// account scoping entirely.
func (r Role) IsSuper() bool {
	return r == RoleSuperAdmin
}

// IsAdmin reports whether the role carries account-administration rights.
func (r Role) IsAdmin() bool {
	return r.AtLeast(RoleAdmin)
}

// RequireRoleAtLeast fails with Forbidden naming both roles when actual does
// not satisfy required.
func RequireRoleAtLeast(actual, required Role) error {
	if actual.AtLeast(required) {
		return nil
	}
	return fmt.Errorf("%w: role %s does not satisfy required role %s", ErrForbidden, actual, required)
}
