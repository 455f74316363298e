package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_Dollars(t *testing.T) {
	assert.Equal(t, "0.00", Cents(0).Dollars())
	assert.Equal(t, "0.05", Cents(5).Dollars())
	assert.Equal(t, "45.00", Cents(4500).Dollars())
	assert.Equal(t, "423.67", Cents(42367).Dollars())
	assert.Equal(t, "-1.25", Cents(-125).Dollars())
}

func TestNewTenant(t *testing.T) {
	tenant := NewTenant("Subsidiary A", "sub-a", TenantTypeSubsidiary).
		WithMonthlyCap(500000).
		WithQuotas(10, 25)

	assert.NotEqual(t, uuid.Nil, tenant.ID)
	assert.Equal(t, TenantTypeSubsidiary, tenant.Type)
	assert.Equal(t, Cents(500000), tenant.MonthlyCapCents)
	assert.Equal(t, 10, tenant.MaxAssistants)
	assert.Equal(t, 25, tenant.MaxUsers)
	assert.Nil(t, tenant.ParentID)
	assert.Equal(t, "UTC", tenant.Timezone)
}

func TestTenant_Location(t *testing.T) {
	tenant := NewTenant("Holdings", "holdings", TenantTypeHolding)

	t.Run("default is UTC", func(t *testing.T) {
		assert.Equal(t, time.UTC, tenant.Location())
	})

	t.Run("valid timezone", func(t *testing.T) {
		tenant.Timezone = "America/New_York"
		loc := tenant.Location()
		require.NotNil(t, loc)
		assert.Equal(t, "America/New_York", loc.String())
	})

	t.Run("invalid timezone falls back to UTC", func(t *testing.T) {
		tenant.Timezone = "Not/AZone"
		assert.Equal(t, time.UTC, tenant.Location())
	})
}

func TestValidRiskTier(t *testing.T) {
	assert.True(t, ValidRiskTier(0))
	assert.True(t, ValidRiskTier(5))
	assert.False(t, ValidRiskTier(-1))
	assert.False(t, ValidRiskTier(6))
}

func TestAssistant_IsActive(t *testing.T) {
	assistant := NewAssistant(uuid.New(), "Finance-A", "finance-a", "company_finance", 2, 5000)
	assert.True(t, assistant.IsActive())

	assistant.Status = AssistantStatusAwaitingApproval
	assert.True(t, assistant.IsActive())

	assistant.Status = AssistantStatusInactive
	assert.False(t, assistant.IsActive())

	assistant.Status = AssistantStatusError
	assert.False(t, assistant.IsActive())
}

func TestApprovalTimeout(t *testing.T) {
	assert.Equal(t, DefaultApprovalTimeout, ApprovalTimeout(0))
	assert.Equal(t, DefaultApprovalTimeout, ApprovalTimeout(3))
	assert.Equal(t, HighRiskApprovalTimeout, ApprovalTimeout(4))
	assert.Equal(t, HighRiskApprovalTimeout, ApprovalTimeout(5))
}

func TestNewApproval_ExpiresAtFromTimeoutTable(t *testing.T) {
	tenantID := uuid.New()
	workItemID := uuid.New()
	requestedBy := uuid.New()

	t.Run("high risk gets two hour window", func(t *testing.T) {
		approval := NewApproval(tenantID, workItemID, requestedBy, 4, "wire transfer")
		assert.Equal(t, ApprovalStatusPending, approval.Status)
		assert.WithinDuration(t, approval.CreatedAt.Add(2*time.Hour), approval.ExpiresAt, time.Second)
	})

	t.Run("low risk gets full day", func(t *testing.T) {
		approval := NewApproval(tenantID, workItemID, requestedBy, 1, "draft email")
		assert.WithinDuration(t, approval.CreatedAt.Add(24*time.Hour), approval.ExpiresAt, time.Second)
	})
}

func TestApproval_ExpiredAt(t *testing.T) {
	approval := NewApproval(uuid.New(), uuid.New(), uuid.New(), 4, "ctx")

	assert.False(t, approval.ExpiredAt(approval.CreatedAt.Add(time.Hour)))
	assert.True(t, approval.ExpiredAt(approval.CreatedAt.Add(3*time.Hour)))

	// a resolved approval is never "expired"
	approval.Status = ApprovalStatusApproved
	assert.False(t, approval.ExpiredAt(approval.CreatedAt.Add(3*time.Hour)))
}

func TestApprovalStatus_IsTerminal(t *testing.T) {
	assert.False(t, ApprovalStatusPending.IsTerminal())
	assert.True(t, ApprovalStatusApproved.IsTerminal())
	assert.True(t, ApprovalStatusRejected.IsTerminal())
	assert.True(t, ApprovalStatusExpired.IsTerminal())
}

func TestNewAuditLogEntry(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()
	entityID := uuid.New()

	entry := NewAuditLogEntry(tenantID, ActorTypeUser, actorID, AuditActionApprovalGranted, "approval", entityID).
		WithDetails(map[string]interface{}{"risk_level": 4})

	assert.Equal(t, tenantID, entry.TenantID)
	assert.Equal(t, AuditActionApprovalGranted, entry.Action)
	assert.JSONEq(t, `{"risk_level":4}`, string(entry.Details))
	assert.False(t, entry.Timestamp.IsZero())
}

func TestNewCostTransaction(t *testing.T) {
	txn := NewCostTransaction(uuid.New(), uuid.New(), "anthropic", 1250).
		WithIdempotencyKey("run-42")

	assert.Equal(t, Cents(1250), txn.AmountCents)
	require.NotNil(t, txn.IdempotencyKey)
	assert.Equal(t, "run-42", *txn.IdempotencyKey)
}

func TestNewWorkItem(t *testing.T) {
	item := NewWorkItem(uuid.New(), uuid.New(), "Reconcile invoices", 2, 3)
	assert.Equal(t, WorkItemStatusBacklog, item.Status)
	assert.Equal(t, 3, item.RiskLevel)
	assert.Nil(t, item.CompletedAt)
	assert.False(t, item.Status.IsTerminal())
	assert.True(t, WorkItemStatusCompleted.IsTerminal())
}
