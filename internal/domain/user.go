package domain

// Identity is the authenticated caller as resolved from the bearer token.
// The core trusts it and maps it to a Profile by email.
type Identity struct {
	Subject  string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Provider string `json:"provider"`
}

// Roles
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// IsAdminRole reports whether role grants access to admin operations
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
