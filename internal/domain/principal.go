package domain

// Roles a principal can hold.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// Principal is the authenticated actor behind a request.
type Principal struct {
	ID   string
	Name string
	Role string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
