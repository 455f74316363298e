package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a user within a tenant
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin" // holding-level administrators
	RoleAdmin      UserRole = "admin"
	RoleMember     UserRole = "member"
	RoleViewer     UserRole = "viewer"
)

// User represents a human user profile scoped to a tenant
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "user_profiles"
}

// NewUser creates a new User instance
func NewUser(email, name string, tenantID uuid.UUID, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		TenantID:  tenantID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if the user has an administrative role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// CanResolveApprovals returns true if the user can approve or reject requests
func (u *User) CanResolveApprovals() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleAdmin || u.Role == RoleMember
}
