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

// WorkItemRepository implements the repositories.WorkItemRepository interface
type WorkItemRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWorkItemRepository creates a new work item repository
func NewWorkItemRepository(db *DB, logger *zap.Logger) repositories.WorkItemRepository {
	return &WorkItemRepository{
		db:     db,
		logger: logger,
	}
}

const workItemColumns = `id, tenant_id, assistant_id, title, priority, risk_level, status, result, created_at, completed_at`

// Create creates a new work item
func (r *WorkItemRepository) Create(ctx context.Context, item *models.WorkItem) error {
	query := `
		INSERT INTO work_items (` + workItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		item.ID,
		item.TenantID,
		item.AssistantID,
		item.Title,
		item.Priority,
		item.RiskLevel,
		item.Status,
		item.Result,
		item.CreatedAt,
		item.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert work item: %w", err)
	}

	r.logger.Debug("work item created", zap.String("id", item.ID.String()))
	return nil
}

// GetByID retrieves a work item scoped to a tenant
func (r *WorkItemRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE tenant_id = $1 AND id = $2`

	item := &models.WorkItem{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id).Scan(
		&item.ID,
		&item.TenantID,
		&item.AssistantID,
		&item.Title,
		&item.Priority,
		&item.RiskLevel,
		&item.Status,
		&item.Result,
		&item.CreatedAt,
		&item.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	return item, nil
}

// ListByTenant retrieves work items for a tenant with pagination
func (r *WorkItemRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.WorkItem, error) {
	query := `
		SELECT ` + workItemColumns + `
		FROM work_items
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}
	defer rows.Close()

	var items []*models.WorkItem
	for rows.Next() {
		item := &models.WorkItem{}
		err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.AssistantID,
			&item.Title,
			&item.Priority,
			&item.RiskLevel,
			&item.Status,
			&item.Result,
			&item.CreatedAt,
			&item.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work item rows: %w", err)
	}

	return items, nil
}

// UpdateStatus updates the work item status
func (r *WorkItemRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.WorkItemStatus, completedAt *time.Time) error {
	query := `
		UPDATE work_items
		SET status = $3, completed_at = $4
		WHERE tenant_id = $1 AND id = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, tenantID, id, status, completedAt)
	if err != nil {
		return fmt.Errorf("failed to update work item status: %w", err)
	}
	return requireRowAffected(result)
}

// Complete marks the work item completed and stores the reported result
func (r *WorkItemRepository) Complete(ctx context.Context, tenantID, id uuid.UUID, result *string, completedAt time.Time) error {
	query := `
		UPDATE work_items
		SET status = $3, result = $4, completed_at = $5
		WHERE tenant_id = $1 AND id = $2
	`

	executor := GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, query, tenantID, id, models.WorkItemStatusCompleted, result, completedAt)
	if err != nil {
		return fmt.Errorf("failed to complete work item: %w", err)
	}
	return requireRowAffected(res)
}
