package constants

// Role names bound to accounts. Org-type admin roles follow the "{type}Admin" pattern.
const (
	RoleAdmin             = "Admin"
	RoleManager           = "Manager"
	RoleOrganizationAdmin = "OrganizationAdmin"
	RoleOrganizationUser  = "OrganizationUser"
	RoleUser              = "User"
	RoleClient            = "Client"
)

// DefaultRegistrationRole is assigned when a registration names no role.
const DefaultRegistrationRole = RoleClient

// FallbackRole is reported for accounts that have no role bound.
const FallbackRole = RoleUser
