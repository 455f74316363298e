package approval

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
)

// CreateRequest represents a request to open an approval for a work item
type CreateRequest struct {
	TenantID       uuid.UUID
	WorkItemID     uuid.UUID
	RiskLevel      int
	RequestedBy    uuid.UUID
	ActorType      models.ActorType
	ContextSummary string
}

// Engine owns the approval state machine: pending -> {approved, rejected,
// expired}, exactly one terminal transition per approval. Resolution is a
// compare-and-swap against status = 'pending'; of any concurrent
// approve/reject/expire race exactly one writer wins, and losers observe a
// conflict carrying the current status. Every transition commits atomically
// with its work item update and audit entry.
type Engine struct {
	approvals repositories.ApprovalRepository
	workItems repositories.WorkItemRepository
	txManager repositories.TransactionManager
	recorder  *audit.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a new approval Engine instance
func NewEngine(
	approvals repositories.ApprovalRepository,
	workItems repositories.WorkItemRepository,
	txManager repositories.TransactionManager,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		approvals: approvals,
		workItems: workItems,
		txManager: txManager,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a pending approval and parks the work item in
// awaiting_approval. The expiry is computed from the risk-level timeout
// table at creation; a work item can hold at most one open approval.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*models.Approval, error) {
	if !models.ValidRiskTier(req.RiskLevel) {
		return nil, services.ErrInvalidRiskLevel.WithDetail("risk_level", req.RiskLevel)
	}

	if _, err := e.workItems.GetByID(ctx, req.TenantID, req.WorkItemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrWorkItemNotFound
		}
		return nil, services.WrapInternal("failed to load work item", err)
	}

	approval := models.NewApproval(req.TenantID, req.WorkItemID, req.RequestedBy, req.RiskLevel, req.ContextSummary)
	now := e.now()
	approval.CreatedAt = now
	approval.ExpiresAt = now.Add(models.ApprovalTimeout(req.RiskLevel))

	actorType := req.ActorType
	if actorType == "" {
		actorType = models.ActorTypeUser
	}

	err := e.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := e.approvals.Create(ctx, approval); err != nil {
			return err
		}
		if err := e.workItems.UpdateStatus(ctx, req.TenantID, req.WorkItemID, models.WorkItemStatusAwaitingApproval, nil); err != nil {
			return err
		}

		entry := models.NewAuditLogEntry(req.TenantID, actorType, req.RequestedBy,
			models.AuditActionApprovalRequested, models.Approval{}.TableName(), approval.ID).
			WithDetails(map[string]interface{}{
				"work_item_id": req.WorkItemID,
				"risk_level":   req.RiskLevel,
				"expires_at":   approval.ExpiresAt,
			})
		return e.recorder.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateApproval.WithDetail("work_item_id", req.WorkItemID.String())
		}
		return nil, services.WrapInternal("failed to create approval", err)
	}

	e.logger.Info("approval created",
		zap.String("approval_id", approval.ID.String()),
		zap.String("work_item_id", req.WorkItemID.String()),
		zap.Int("risk_level", req.RiskLevel),
		zap.Time("expires_at", approval.ExpiresAt))
	return approval, nil
}

// Approve resolves a pending approval as granted and moves the work item
// back to in_progress. Valid only while the approval is pending and
// unexpired; an expired-but-unswept approval fails the same as a swept one.
func (e *Engine) Approve(ctx context.Context, tenantID, approvalID, approverID uuid.UUID) (*models.Approval, error) {
	now := e.now()
	params := repositories.ResolveApprovalParams{
		TenantID:         tenantID,
		ApprovalID:       approvalID,
		Status:           models.ApprovalStatusApproved,
		ApprovedBy:       &approverID,
		ResolvedAt:       now,
		RequireUnexpired: true,
		Now:              now,
	}

	resolved, err := e.resolve(ctx, params, func(ctx context.Context, approval *models.Approval) error {
		if err := e.workItems.UpdateStatus(ctx, tenantID, approval.WorkItemID, models.WorkItemStatusInProgress, nil); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(tenantID, models.ActorTypeUser, approverID,
			models.AuditActionApprovalGranted, models.Approval{}.TableName(), approval.ID).
			WithDetails(map[string]interface{}{
				"work_item_id": approval.WorkItemID,
				"risk_level":   approval.RiskLevel,
			})
		return e.recorder.Record(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("approval granted",
		zap.String("approval_id", approvalID.String()),
		zap.String("approved_by", approverID.String()))
	return resolved, nil
}

// Reject resolves a pending approval as rejected and blocks the work item
func (e *Engine) Reject(ctx context.Context, tenantID, approvalID, rejectedBy uuid.UUID, reason string) (*models.Approval, error) {
	if reason == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "reason")
	}

	now := e.now()
	params := repositories.ResolveApprovalParams{
		TenantID:         tenantID,
		ApprovalID:       approvalID,
		Status:           models.ApprovalStatusRejected,
		RejectedReason:   &reason,
		ResolvedAt:       now,
		RequireUnexpired: true,
		Now:              now,
	}

	resolved, err := e.resolve(ctx, params, func(ctx context.Context, approval *models.Approval) error {
		if err := e.workItems.UpdateStatus(ctx, tenantID, approval.WorkItemID, models.WorkItemStatusBlocked, nil); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(tenantID, models.ActorTypeUser, rejectedBy,
			models.AuditActionApprovalRejected, models.Approval{}.TableName(), approval.ID).
			WithDetails(map[string]interface{}{
				"work_item_id": approval.WorkItemID,
				"reason":       reason,
			})
		return e.recorder.Record(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("approval rejected",
		zap.String("approval_id", approvalID.String()),
		zap.String("reason", reason))
	return resolved, nil
}

// resolve runs one terminal transition: the CAS update plus the follow-up
// writes in a single transaction. When the CAS matches zero rows the current
// status is re-read to classify the loss.
func (e *Engine) resolve(ctx context.Context, params repositories.ResolveApprovalParams, onWin func(ctx context.Context, approval *models.Approval) error) (*models.Approval, error) {
	var resolved *models.Approval

	err := e.txManager.InTransaction(ctx, func(ctx context.Context) error {
		approval, won, err := e.approvals.Resolve(ctx, params)
		if err != nil {
			return err
		}
		if !won {
			return errResolveLost
		}
		resolved = approval
		return onWin(ctx, approval)
	})
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, errResolveLost) {
		return nil, services.WrapInternal("failed to resolve approval", err)
	}

	return nil, e.classifyLoss(ctx, params)
}

// errResolveLost aborts the transaction when the CAS matched no rows
var errResolveLost = errors.New("approval resolution lost race")

// classifyLoss turns a zero-row CAS into the caller-visible outcome: the
// approval does not exist, already reached a terminal state, or its pending
// window closed before the sweep ran.
func (e *Engine) classifyLoss(ctx context.Context, params repositories.ResolveApprovalParams) error {
	current, err := e.approvals.GetByID(ctx, params.TenantID, params.ApprovalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrApprovalNotFound
		}
		return services.WrapInternal("failed to read approval after lost race", err)
	}

	if current.Status == models.ApprovalStatusPending {
		return services.ErrApprovalExpired.WithDetail("expires_at", current.ExpiresAt)
	}
	return services.ErrAlreadyResolved.WithDetail("current_status", string(current.Status))
}

// SweepExpired transitions every lapsed pending approval to expired and
// blocks its work item. The sweep is a compaction aid: expiry is already
// authoritative on read, so sweeping late (or twice) changes nothing. Each
// approval is swept in its own transaction; a CAS loss means someone else
// resolved or swept it first and is skipped.
func (e *Engine) SweepExpired(ctx context.Context, limit int) ([]*models.Approval, error) {
	if limit <= 0 {
		limit = 100
	}
	now := e.now()

	lapsed, err := e.approvals.ListExpired(ctx, now, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to list expired approvals", err)
	}

	var swept []*models.Approval
	for _, approval := range lapsed {
		params := repositories.ResolveApprovalParams{
			TenantID:   approval.TenantID,
			ApprovalID: approval.ID,
			Status:     models.ApprovalStatusExpired,
			ResolvedAt: now,
		}

		err := e.txManager.InTransaction(ctx, func(ctx context.Context) error {
			resolved, won, err := e.approvals.Resolve(ctx, params)
			if err != nil {
				return err
			}
			if !won {
				return errResolveLost
			}
			if err := e.workItems.UpdateStatus(ctx, approval.TenantID, approval.WorkItemID, models.WorkItemStatusBlocked, nil); err != nil {
				return err
			}

			entry := models.NewAuditLogEntry(approval.TenantID, models.ActorTypeSystem, uuid.Nil,
				models.AuditActionApprovalExpired, models.Approval{}.TableName(), approval.ID).
				WithDetails(map[string]interface{}{
					"work_item_id": approval.WorkItemID,
					"expires_at":   approval.ExpiresAt,
				})
			if err := e.recorder.Record(ctx, entry); err != nil {
				return err
			}
			swept = append(swept, resolved)
			return nil
		})
		if err != nil && !errors.Is(err, errResolveLost) {
			return swept, services.WrapInternal("failed to sweep approval", err)
		}
	}

	if len(swept) > 0 {
		e.logger.Info("expired approvals swept", zap.Int("count", len(swept)))
	}
	return swept, nil
}

// Get retrieves an approval scoped to a tenant
func (e *Engine) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Approval, error) {
	approval, err := e.approvals.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrApprovalNotFound
		}
		return nil, services.WrapInternal("failed to get approval", err)
	}
	return approval, nil
}

// List retrieves approvals for a tenant, optionally filtered by status
func (e *Engine) List(ctx context.Context, tenantID uuid.UUID, status *models.ApprovalStatus, limit, offset int) ([]*models.Approval, error) {
	if limit <= 0 {
		limit = 50
	}
	approvals, err := e.approvals.ListByTenant(ctx, tenantID, status, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list approvals", err)
	}
	return approvals, nil
}
