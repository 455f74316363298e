package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkItemStatus represents the lifecycle state of a work item
type WorkItemStatus string

const (
	WorkItemStatusBacklog          WorkItemStatus = "backlog"
	WorkItemStatusInProgress       WorkItemStatus = "in_progress"
	WorkItemStatusAwaitingApproval WorkItemStatus = "awaiting_approval"
	WorkItemStatusCompleted        WorkItemStatus = "completed"
	WorkItemStatusBlocked          WorkItemStatus = "blocked"
)

// WorkItem represents a unit of work an assistant is carrying out.
// Transitions to awaiting_approval happen only through the approval engine;
// transitions to completed require any linked approval to have been granted
// and the agent runtime to have reported execution complete.
type WorkItem struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	TenantID    uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	AssistantID uuid.UUID      `json:"assistant_id" db:"assistant_id"`
	Title       string         `json:"title" db:"title"`
	Priority    int            `json:"priority" db:"priority"`
	RiskLevel   int            `json:"risk_level" db:"risk_level"` // per-action, may differ from the assistant's baseline tier
	Status      WorkItemStatus `json:"status" db:"status"`
	Result      *string        `json:"result,omitempty" db:"result"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// TableName returns the table name for the WorkItem model
func (WorkItem) TableName() string {
	return "work_items"
}

// NewWorkItem creates a new WorkItem instance in backlog
func NewWorkItem(tenantID, assistantID uuid.UUID, title string, priority, riskLevel int) *WorkItem {
	return &WorkItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		AssistantID: assistantID,
		Title:       title,
		Priority:    priority,
		RiskLevel:   riskLevel,
		Status:      WorkItemStatusBacklog,
		CreatedAt:   time.Now(),
	}
}

// IsTerminal reports whether the work item has reached a final state
func (s WorkItemStatus) IsTerminal() bool {
	return s == WorkItemStatusCompleted
}
