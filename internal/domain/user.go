package domain

import "time"

// Role names carried in the token's role claim.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleStock      Role = "stock"
	RoleAuditor    Role = "auditeur"
	RoleProducer   Role = "producteur"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStock, RoleAuditor, RoleProducer:
		return true
	}
	return false
}

// IsAdmin reports whether r may act on every magasin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is an account able to log in. MagasinID is set for staff attached to a store.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	MagasinID    *int64
	Confirmed    bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
