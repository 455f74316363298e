package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus represents the state of an approval request
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
	ApprovalStatusExpired  ApprovalStatus = "expired"
)

// IsTerminal reports whether the status admits no further transitions
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected || s == ApprovalStatusExpired
}

// Approval timeout table. High-tier actions get a short window so a stale
// request cannot sit actionable for a full day.
const (
	HighRiskApprovalTimeout = 2 * time.Hour
	DefaultApprovalTimeout  = 24 * time.Hour

	// HighRiskTier is the tier at or above which the short timeout applies
	HighRiskTier = 4
)

// ApprovalTimeout returns the pending window for a given risk level
func ApprovalTimeout(riskLevel int) time.Duration {
	if riskLevel >= HighRiskTier {
		return HighRiskApprovalTimeout
	}
	return DefaultApprovalTimeout
}

// Approval represents a governance record gating a work item pending human
// sign-off. Exactly one terminal transition ever occurs; expiry is computed
// from ExpiresAt, not from a running timer.
type Approval struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	TenantID       uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	WorkItemID     uuid.UUID      `json:"work_item_id" db:"work_item_id"`
	RiskLevel      int            `json:"risk_level" db:"risk_level"`
	Status         ApprovalStatus `json:"status" db:"status"`
	RequestedBy    uuid.UUID      `json:"requested_by" db:"requested_by"`
	ApprovedBy     *uuid.UUID     `json:"approved_by,omitempty" db:"approved_by"`
	RejectedReason *string        `json:"rejected_reason,omitempty" db:"rejected_reason"`
	ContextSummary string         `json:"context_summary" db:"context_summary"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time      `json:"expires_at" db:"expires_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
}

// TableName returns the table name for the Approval model
func (Approval) TableName() string {
	return "approvals"
}

// NewApproval creates a pending Approval with its expiry assigned from the
// risk-level timeout table.
func NewApproval(tenantID, workItemID, requestedBy uuid.UUID, riskLevel int, contextSummary string) *Approval {
	now := time.Now()
	return &Approval{
		ID:             uuid.New(),
		TenantID:       tenantID,
		WorkItemID:     workItemID,
		RiskLevel:      riskLevel,
		Status:         ApprovalStatusPending,
		RequestedBy:    requestedBy,
		ContextSummary: contextSummary,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ApprovalTimeout(riskLevel)),
	}
}

// ExpiredAt reports whether the approval's pending window has closed at now.
// An expired-but-unswept approval is already unactionable.
func (a *Approval) ExpiredAt(now time.Time) bool {
	return a.Status == ApprovalStatusPending && !now.Before(a.ExpiresAt)
}
