// File: internal/domain/user.go
package domain

import "time"

// UserRole mirrors the role column issued by the auth service.
type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleManager  UserRole = "MANAGER"
	RoleAdmin    UserRole = "ADMIN"
)

// IsStaff reports whether the role grants access to the manager queue.
func (r UserRole) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

// User is the authenticated account record. Accounts are created and
// verified by the external auth service; this subsystem only reads them
// for display names and role checks.
type User struct {
	ID        string    `json:"id" gorm:"primarykey;type:uuid"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Role      UserRole  `json:"role" gorm:"type:varchar(16);default:CUSTOMER"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName joins first and last name, falling back to the given default.
func (u *User) DisplayName(fallback string) string {
	if u == nil {
		return fallback
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return fallback
	}
	return name
}
