package domain

import "time"

// Role represents a staff role in the back office
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleCashier    Role = "cashier"
)

// AllRoles lists every assignable role, most privileged first
var AllRoles = []Role{RoleAdmin, RoleManager, RoleSupervisor, RoleCashier}

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User represents a staff profile in the domain layer
type User struct {
	ID        uint
	Email     string
	FullName  string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the minimal actor record the access resolver needs
type Profile struct {
	UserID   uint
	Role     Role
	IsActive bool
}
