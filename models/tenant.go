package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantType represents the position of a tenant in the organization tree
type TenantType string

const (
	TenantTypeHolding    TenantType = "holding"
	TenantTypeSubsidiary TenantType = "subsidiary"
	TenantTypePrimary    TenantType = "primary"
)

// Tenant represents an organizational tenant in the multi-tenant system.
// Tenants form a tree (holding -> subsidiaries); the monthly budget cap is
// owned per tenant, independent of the parent.
type Tenant struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Slug            string     `json:"slug" db:"slug"` // URL-friendly identifier
	Type            TenantType `json:"type" db:"type"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	MonthlyCapCents Cents      `json:"monthly_cap_cents" db:"monthly_cap_cents"`
	MaxAssistants   int        `json:"max_assistants" db:"max_assistants"`
	MaxUsers        int        `json:"max_users" db:"max_users"`
	Timezone        string     `json:"timezone" db:"timezone"` // IANA name, e.g. "America/New_York"
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new Tenant instance
func NewTenant(name, slug string, tenantType TenantType) *Tenant {
	now := time.Now()
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Type:      tenantType,
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithParent sets the parent tenant (holding -> subsidiary)
func (t *Tenant) WithParent(parentID uuid.UUID) *Tenant {
	t.ParentID = &parentID
	return t
}

// WithMonthlyCap sets the monthly budget cap
func (t *Tenant) WithMonthlyCap(cap Cents) *Tenant {
	t.MonthlyCapCents = cap
	return t
}

// WithQuotas sets the assistant and user quota limits
func (t *Tenant) WithQuotas(maxAssistants, maxUsers int) *Tenant {
	t.MaxAssistants = maxAssistants
	t.MaxUsers = maxUsers
	return t
}

// Location resolves the tenant timezone, falling back to UTC when unset
// or invalid. Spend periods are calendar days/months in this location.
func (t *Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
