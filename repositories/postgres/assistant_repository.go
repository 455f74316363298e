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

// AssistantRepository implements the repositories.AssistantRepository interface
type AssistantRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAssistantRepository creates a new assistant repository
func NewAssistantRepository(db *DB, logger *zap.Logger) repositories.AssistantRepository {
	return &AssistantRepository{
		db:     db,
		logger: logger,
	}
}

const assistantColumns = `id, tenant_id, name, slug, type, risk_tier, daily_cap_cents, status, created_at, updated_at`

// Create creates a new assistant
func (r *AssistantRepository) Create(ctx context.Context, assistant *models.Assistant) error {
	query := `
		INSERT INTO assistants (` + assistantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		assistant.ID,
		assistant.TenantID,
		assistant.Name,
		assistant.Slug,
		assistant.Type,
		assistant.RiskTier,
		assistant.DailyCapCents,
		assistant.Status,
		assistant.CreatedAt,
		assistant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to insert assistant: %w", err)
	}

	r.logger.Debug("assistant created",
		zap.String("id", assistant.ID.String()),
		zap.String("tenant_id", assistant.TenantID.String()))
	return nil
}

// GetByID retrieves an assistant scoped to a tenant
func (r *AssistantRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Assistant, error) {
	query := `SELECT ` + assistantColumns + ` FROM assistants WHERE tenant_id = $1 AND id = $2`
	return scanAssistant(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id))
}

// ListByTenant retrieves all assistants for a tenant
func (r *AssistantRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Assistant, error) {
	query := `
		SELECT ` + assistantColumns + `
		FROM assistants
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assistants: %w", err)
	}
	defer rows.Close()

	var assistants []*models.Assistant
	for rows.Next() {
		assistant := &models.Assistant{}
		err := rows.Scan(
			&assistant.ID,
			&assistant.TenantID,
			&assistant.Name,
			&assistant.Slug,
			&assistant.Type,
			&assistant.RiskTier,
			&assistant.DailyCapCents,
			&assistant.Status,
			&assistant.CreatedAt,
			&assistant.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assistant: %w", err)
		}
		assistants = append(assistants, assistant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assistant rows: %w", err)
	}

	return assistants, nil
}

// CountByTenant counts assistants belonging to a tenant
func (r *AssistantRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assistants WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assistants: %w", err)
	}
	return count, nil
}

// Update updates an assistant
func (r *AssistantRepository) Update(ctx context.Context, assistant *models.Assistant) error {
	query := `
		UPDATE assistants
		SET name = $3, slug = $4, type = $5, risk_tier = $6, daily_cap_cents = $7,
		    status = $8, updated_at = $9
		WHERE tenant_id = $1 AND id = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		assistant.TenantID,
		assistant.ID,
		assistant.Name,
		assistant.Slug,
		assistant.Type,
		assistant.RiskTier,
		assistant.DailyCapCents,
		assistant.Status,
		assistant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to update assistant: %w", err)
	}
	return requireRowAffected(result)
}

// UpdateStatus updates only the assistant status
func (r *AssistantRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.AssistantStatus) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE assistants SET status = $3, updated_at = $4 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update assistant status: %w", err)
	}
	return requireRowAffected(result)
}

// Delete deletes an assistant scoped to a tenant
func (r *AssistantRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM assistants WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete assistant: %w", err)
	}
	return requireRowAffected(result)
}

func scanAssistant(row *sql.Row) (*models.Assistant, error) {
	assistant := &models.Assistant{}
	err := row.Scan(
		&assistant.ID,
		&assistant.TenantID,
		&assistant.Name,
		&assistant.Slug,
		&assistant.Type,
		&assistant.RiskTier,
		&assistant.DailyCapCents,
		&assistant.Status,
		&assistant.CreatedAt,
		&assistant.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assistant: %w", err)
	}
	return assistant, nil
}
