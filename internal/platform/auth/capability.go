package auth

// Capability names one operation class a caller may be granted. All
// role-to-permission decisions go through Can so the authorization
// assumptions stay auditable in one table.
type Capability string

const (
	CapBorrow         Capability = "borrow"
	CapManageBooks    Capability = "manage_books"
	CapManageLoans    Capability = "manage_loans"
	CapManageUsers    Capability = "manage_users"
	CapManageSettings Capability = "manage_settings"
	CapAdminister     Capability = "administer"
)

var grants = map[string]map[Capability]struct{}{
	RoleMember: {
		CapBorrow: {},
	},
	RoleLibrarian: {
		CapManageBooks:    {},
		CapManageLoans:    {},
		CapManageUsers:    {},
		CapManageSettings: {},
	},
	RoleAdmin: {
		CapManageBooks:    {},
		CapManageLoans:    {},
		CapManageUsers:    {},
		CapManageSettings: {},
		CapAdminister:     {},
	},
}

func Can(role string, cap Capability) bool {
	caps, ok := grants[role]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}
