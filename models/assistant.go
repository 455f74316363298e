package models

import (
	"time"

	"github.com/google/uuid"
)

// AssistantStatus represents the operational state of an assistant
type AssistantStatus string

const (
	AssistantStatusActive           AssistantStatus = "active"
	AssistantStatusInactive         AssistantStatus = "inactive"
	AssistantStatusAwaitingApproval AssistantStatus = "awaiting_approval"
	AssistantStatusError            AssistantStatus = "error"
)

// Risk tier bounds. Tiers are assigned by an administrator, not computed.
const (
	MinRiskTier = 0
	MaxRiskTier = 5
)

// Assistant represents an autonomous agent acting on behalf of a tenant
type Assistant struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	Type          string          `json:"type" db:"type"` // e.g. company_finance, company_compliance
	RiskTier      int             `json:"risk_tier" db:"risk_tier"`
	DailyCapCents Cents           `json:"daily_cap_cents" db:"daily_cap_cents"`
	Status        AssistantStatus `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Assistant model
func (Assistant) TableName() string {
	return "assistants"
}

// NewAssistant creates a new Assistant instance
func NewAssistant(tenantID uuid.UUID, name, slug, assistantType string, riskTier int, dailyCap Cents) *Assistant {
	now := time.Now()
	return &Assistant{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Name:          name,
		Slug:          slug,
		Type:          assistantType,
		RiskTier:      riskTier,
		DailyCapCents: dailyCap,
		Status:        AssistantStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsActive reports whether the assistant may have actions authorized
func (a *Assistant) IsActive() bool {
	return a.Status == AssistantStatusActive || a.Status == AssistantStatusAwaitingApproval
}

// ValidRiskTier reports whether tier is within the administrative range
func ValidRiskTier(tier int) bool {
	return tier >= MinRiskTier && tier <= MaxRiskTier
}
