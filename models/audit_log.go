package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorType represents who performed an audited action
type ActorType string

const (
	ActorTypeUser      ActorType = "user"
	ActorTypeAssistant ActorType = "assistant"
	ActorTypeSystem    ActorType = "system"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCostPosted        AuditAction = "cost_posted"
	AuditActionCostRejected      AuditAction = "cost_rejected"
	AuditActionActionAuthorized  AuditAction = "action_authorized"
	AuditActionActionDenied      AuditAction = "action_denied"
	AuditActionApprovalRequested AuditAction = "approval_requested"
	AuditActionApprovalGranted   AuditAction = "approval_granted"
	AuditActionApprovalRejected  AuditAction = "approval_rejected"
	AuditActionApprovalExpired   AuditAction = "approval_expired"
	AuditActionAssistantCreated  AuditAction = "assistant_created"
	AuditActionAssistantUpdated  AuditAction = "assistant_updated"
	AuditActionTenantCreated     AuditAction = "tenant_created"
	AuditActionTenantUpdated     AuditAction = "tenant_updated"
	AuditActionWorkItemCreated   AuditAction = "work_item_created"
	AuditActionWorkItemCompleted AuditAction = "work_item_completed"
)

// AuditLogEntry represents an audit trail entry. Entries are append-only and
// tenant-scoped; they reference entities but never own them.
type AuditLogEntry struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	ActorType  ActorType       `json:"actor_type" db:"actor_type"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	Action     AuditAction     `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"` // approval, cost_transaction, work_item, etc.
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Details    json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	Timestamp  time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLogEntry model
func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// NewAuditLogEntry creates a new AuditLogEntry instance
func NewAuditLogEntry(tenantID uuid.UUID, actorType ActorType, actorID uuid.UUID, action AuditAction, entityType string, entityID uuid.UUID) *AuditLogEntry {
	return &AuditLogEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now(),
	}
}

// WithDetails sets the details payload
func (e *AuditLogEntry) WithDetails(details interface{}) *AuditLogEntry {
	if data, err := json.Marshal(details); err == nil {
		e.Details = data
	}
	return e
}
