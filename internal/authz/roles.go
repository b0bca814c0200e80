package authz

import "github.com/Payphone-Digital/tracker/internal/constants"

// KnownRoles is every role an account can be bound to
var KnownRoles = []string{
	constants.RoleAdmin,
	constants.RoleManager,
	constants.RoleOrganizationAdmin,
	constants.RoleOrganizationUser,
	constants.RoleUser,
	constants.RoleClient,
}

func IsKnownRole(role string) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsSelfAssignable reports whether role may be picked at self-registration.
// Admin is only granted through seeding.
func IsSelfAssignable(role string) bool {
	return IsKnownRole(role) && role != constants.RoleAdmin
}
