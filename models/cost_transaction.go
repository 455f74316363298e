package models

import (
	"time"

	"github.com/google/uuid"
)

// CostTransaction represents one reported cost amount posted against an
// assistant. Rows are append-only: never updated, never deleted. All
// aggregates are derived by summation over this log.
type CostTransaction struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	AssistantID    uuid.UUID `json:"assistant_id" db:"assistant_id"`
	Provider       string    `json:"provider" db:"provider"`
	AmountCents    Cents     `json:"amount_cents" db:"amount_cents"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty" db:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the CostTransaction model
func (CostTransaction) TableName() string {
	return "cost_transactions"
}

// NewCostTransaction creates a new CostTransaction instance
func NewCostTransaction(tenantID, assistantID uuid.UUID, provider string, amount Cents) *CostTransaction {
	return &CostTransaction{
		ID:          uuid.New(),
		TenantID:    tenantID,
		AssistantID: assistantID,
		Provider:    provider,
		AmountCents: amount,
		CreatedAt:   time.Now(),
	}
}

// WithIdempotencyKey sets the caller-supplied dedupe key
func (t *CostTransaction) WithIdempotencyKey(key string) *CostTransaction {
	t.IdempotencyKey = &key
	return t
}
