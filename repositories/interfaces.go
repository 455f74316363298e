package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if the function succeeds, rolls back on error.
	// The context passed to fn carries the transaction; repositories pick it
	// up transparently.
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error
}

// TenantRepository handles tenant data operations
type TenantRepository interface {
	// Create creates a new tenant
	Create(ctx context.Context, tenant *models.Tenant) error

	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	// GetBySlug retrieves a tenant by slug
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)

	// List retrieves all tenants with pagination
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)

	// ListChildren retrieves the direct subsidiaries of a tenant
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*models.Tenant, error)

	// Update updates a tenant
	Update(ctx context.Context, tenant *models.Tenant) error

	// Delete deletes a tenant
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository handles user profile data operations
type UserRepository interface {
	// Create creates a new user profile
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user scoped to a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)

	// ListByTenant retrieves all users for a tenant
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error)

	// CountByTenant counts users belonging to a tenant
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Update updates a user profile
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user profile scoped to a tenant
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// AssistantRepository handles assistant data operations.
// Every read is scoped by tenant ID; rows outside the caller's tenant are
// treated as not found.
type AssistantRepository interface {
	// Create creates a new assistant
	Create(ctx context.Context, assistant *models.Assistant) error

	// GetByID retrieves an assistant scoped to a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Assistant, error)

	// ListByTenant retrieves all assistants for a tenant
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Assistant, error)

	// CountByTenant counts assistants belonging to a tenant
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Update updates an assistant
	Update(ctx context.Context, assistant *models.Assistant) error

	// UpdateStatus updates only the assistant status
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.AssistantStatus) error

	// Delete deletes an assistant scoped to a tenant
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// WorkItemRepository handles work item data operations
type WorkItemRepository interface {
	// Create creates a new work item
	Create(ctx context.Context, item *models.WorkItem) error

	// GetByID retrieves a work item scoped to a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkItem, error)

	// ListByTenant retrieves work items for a tenant with pagination
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.WorkItem, error)

	// UpdateStatus updates the work item status; completedAt is set only for
	// completed items
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.WorkItemStatus, completedAt *time.Time) error

	// Complete marks the work item completed and stores the reported result
	Complete(ctx context.Context, tenantID, id uuid.UUID, result *string, completedAt time.Time) error
}

// ResolveApprovalParams carries the fields written by a terminal approval
// transition. Exactly one of ApprovedBy / RejectedReason is set for
// approved / rejected; neither for expired.
type ResolveApprovalParams struct {
	TenantID       uuid.UUID
	ApprovalID     uuid.UUID
	Status         models.ApprovalStatus
	ApprovedBy     *uuid.UUID
	RejectedReason *string
	ResolvedAt     time.Time

	// RequireUnexpired adds "expires_at > now" to the compare-and-swap
	// condition, so a human resolution cannot land on a lapsed approval.
	RequireUnexpired bool
	Now              time.Time
}

// ApprovalRepository handles approval data operations
type ApprovalRepository interface {
	// Create creates a new pending approval
	Create(ctx context.Context, approval *models.Approval) error

	// GetByID retrieves an approval scoped to a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Approval, error)

	// ListByTenant retrieves approvals for a tenant, optionally filtered by
	// status, newest first
	ListByTenant(ctx context.Context, tenantID uuid.UUID, status *models.ApprovalStatus, limit, offset int) ([]*models.Approval, error)

	// GetPendingByWorkItem retrieves the open approval for a work item, if any
	GetPendingByWorkItem(ctx context.Context, tenantID, workItemID uuid.UUID) (*models.Approval, error)

	// Resolve performs the compare-and-swap terminal transition:
	// UPDATE ... WHERE id = $id AND status = 'pending' [AND expires_at > now].
	// Returns the updated approval and true when this caller won the race,
	// or (nil, false, nil) when zero rows matched, in which case the caller
	// must re-read to learn the current status.
	Resolve(ctx context.Context, params ResolveApprovalParams) (*models.Approval, bool, error)

	// ListExpired retrieves pending approvals whose expiry has passed
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Approval, error)
}

// CostRepository handles the append-only cost transaction log.
// There are no update or delete operations by design.
type CostRepository interface {
	// Insert appends a cost transaction
	Insert(ctx context.Context, txn *models.CostTransaction) error

	// GetByID retrieves a cost transaction scoped to a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CostTransaction, error)

	// GetByIdempotencyKey retrieves an existing transaction for a dedupe key
	GetByIdempotencyKey(ctx context.Context, assistantID uuid.UUID, key string) (*models.CostTransaction, error)

	// ListByTenant retrieves cost transactions for a tenant, newest first
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.CostTransaction, error)

	// SumByAssistant sums transaction amounts for one assistant in [from, to)
	SumByAssistant(ctx context.Context, assistantID uuid.UUID, from, to time.Time) (models.Cents, error)

	// SumByTenant sums transaction amounts for a whole tenant in [from, to)
	SumByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (models.Cents, error)

	// SumByProvider sums per-provider spend for a tenant in [from, to)
	SumByProvider(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]models.Cents, error)
}

// AuditFilter narrows an audit log query. Zero values mean "no filter".
type AuditFilter struct {
	Action     models.AuditAction
	ActorID    *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// AuditRepository handles the append-only audit log
type AuditRepository interface {
	// Insert appends an audit log entry
	Insert(ctx context.Context, entry *models.AuditLogEntry) error

	// GetByID retrieves an audit log entry scoped to a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLogEntry, error)

	// Query retrieves entries for a tenant matching the filter, ordered by
	// timestamp descending
	Query(ctx context.Context, tenantID uuid.UUID, filter AuditFilter) ([]*models.AuditLogEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Tenants    TenantRepository
	Users      UserRepository
	Assistants AssistantRepository
	WorkItems  WorkItemRepository
	Approvals  ApprovalRepository
	Costs      CostRepository
	AuditLogs  AuditRepository
}
