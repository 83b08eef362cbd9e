package rbac

import "time"

// Reserved role names. Both must always exist and cannot be deleted or
// renamed; admin always retains the manage_roles permission.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reserved reports whether the role name is one of the built-in roles.
func (r Role) Reserved() bool {
	return r.Name == RoleAdmin || r.Name == RoleUser
}
