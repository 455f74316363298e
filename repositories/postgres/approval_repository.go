package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
)

// ApprovalRepository implements the repositories.ApprovalRepository interface
type ApprovalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *DB, logger *zap.Logger) repositories.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

const approvalColumns = `id, tenant_id, work_item_id, risk_level, status, requested_by, approved_by, rejected_reason, context_summary, created_at, expires_at, resolved_at`

// Create creates a new pending approval. The partial unique index on
// (work_item_id) WHERE status = 'pending' turns a second open approval for
// the same work item into ErrDuplicate.
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.Approval) error {
	query := `
		INSERT INTO approvals (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		approval.ID,
		approval.TenantID,
		approval.WorkItemID,
		approval.RiskLevel,
		approval.Status,
		approval.RequestedBy,
		approval.ApprovedBy,
		approval.RejectedReason,
		approval.ContextSummary,
		approval.CreatedAt,
		approval.ExpiresAt,
		approval.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to insert approval: %w", err)
	}

	r.logger.Debug("approval created",
		zap.String("id", approval.ID.String()),
		zap.Int("risk_level", approval.RiskLevel),
		zap.Time("expires_at", approval.ExpiresAt))
	return nil
}

// GetByID retrieves an approval scoped to a tenant
func (r *ApprovalRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE tenant_id = $1 AND id = $2`
	return scanApproval(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id))
}

// ListByTenant retrieves approvals for a tenant, optionally filtered by status
func (r *ApprovalRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, status *models.ApprovalStatus, limit, offset int) ([]*models.Approval, error) {
	if status != nil {
		query := `
			SELECT ` + approvalColumns + `
			FROM approvals
			WHERE tenant_id = $1 AND status = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4
		`
		return r.queryApprovals(ctx, query, tenantID, *status, limit, offset)
	}

	query := `
		SELECT ` + approvalColumns + `
		FROM approvals
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryApprovals(ctx, query, tenantID, limit, offset)
}

// GetPendingByWorkItem retrieves the open approval for a work item, if any
func (r *ApprovalRepository) GetPendingByWorkItem(ctx context.Context, tenantID, workItemID uuid.UUID) (*models.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approvals
		WHERE tenant_id = $1 AND work_item_id = $2 AND status = 'pending'
	`
	return scanApproval(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, workItemID))
}

// Resolve performs the compare-and-swap terminal transition. The WHERE clause
// pins the expected state (status = 'pending', optionally unexpired), so of
// any number of concurrent resolvers exactly one observes RowsAffected = 1.
func (r *ApprovalRepository) Resolve(ctx context.Context, params repositories.ResolveApprovalParams) (*models.Approval, bool, error) {
	query := `
		UPDATE approvals
		SET status = $3, approved_by = $4, rejected_reason = $5, resolved_at = $6
		WHERE tenant_id = $1 AND id = $2 AND status = 'pending'
	`
	args := []interface{}{
		params.TenantID,
		params.ApprovalID,
		params.Status,
		params.ApprovedBy,
		params.RejectedReason,
		params.ResolvedAt,
	}
	if params.RequireUnexpired {
		query += ` AND expires_at > $7`
		args = append(args, params.Now)
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve approval: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// lost the race or the window closed; caller re-reads for the
		// current status
		return nil, false, nil
	}

	approval, err := r.GetByID(ctx, params.TenantID, params.ApprovalID)
	if err != nil {
		return nil, false, err
	}

	r.logger.Debug("approval resolved",
		zap.String("id", params.ApprovalID.String()),
		zap.String("status", string(params.Status)))
	return approval, true, nil
}

// ListExpired retrieves pending approvals whose expiry has passed
func (r *ApprovalRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approvals
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	return r.queryApprovals(ctx, query, now, limit)
}

func (r *ApprovalRepository) queryApprovals(ctx context.Context, query string, args ...interface{}) ([]*models.Approval, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*models.Approval
	for rows.Next() {
		approval := &models.Approval{}
		err := rows.Scan(
			&approval.ID,
			&approval.TenantID,
			&approval.WorkItemID,
			&approval.RiskLevel,
			&approval.Status,
			&approval.RequestedBy,
			&approval.ApprovedBy,
			&approval.RejectedReason,
			&approval.ContextSummary,
			&approval.CreatedAt,
			&approval.ExpiresAt,
			&approval.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval rows: %w", err)
	}

	return approvals, nil
}

func scanApproval(row *sql.Row) (*models.Approval, error) {
	approval := &models.Approval{}
	err := row.Scan(
		&approval.ID,
		&approval.TenantID,
		&approval.WorkItemID,
		&approval.RiskLevel,
		&approval.Status,
		&approval.RequestedBy,
		&approval.ApprovedBy,
		&approval.RejectedReason,
		&approval.ContextSummary,
		&approval.CreatedAt,
		&approval.ExpiresAt,
		&approval.ResolvedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return approval, nil
}
