package models

import "github.com/google/uuid"

// Role is the staff role supplied by the API gateway for the calling user.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
	RoleWaiter  Role = "WAITER"
	RoleKitchen Role = "KITCHEN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleCashier, RoleWaiter, RoleKitchen:
		return true
	}
	return false
}

// IsManagerOrAbove reports whether r is OWNER, ADMIN or MANAGER.
func (r Role) IsManagerOrAbove() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleManager
}

// Actor identifies the authenticated caller. Every query is scoped by TenantID.
type Actor struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
}
