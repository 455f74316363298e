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

// CostRepository implements the repositories.CostRepository interface.
// The table is append-only; aggregates are always computed by summation so
// they can never drift from the transaction log.
type CostRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCostRepository creates a new cost repository
func NewCostRepository(db *DB, logger *zap.Logger) repositories.CostRepository {
	return &CostRepository{
		db:     db,
		logger: logger,
	}
}

const costColumns = `id, tenant_id, assistant_id, provider, amount_cents, idempotency_key, created_at`

// Insert appends a cost transaction. created_at is assigned by the database
// server so ordering per assistant is decided at commit time.
func (r *CostRepository) Insert(ctx context.Context, txn *models.CostTransaction) error {
	query := `
		INSERT INTO cost_transactions (id, tenant_id, assistant_id, provider, amount_cents, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		txn.ID,
		txn.TenantID,
		txn.AssistantID,
		txn.Provider,
		txn.AmountCents,
		txn.IdempotencyKey,
	).Scan(&txn.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to insert cost transaction: %w", err)
	}

	r.logger.Debug("cost transaction inserted",
		zap.String("id", txn.ID.String()),
		zap.String("assistant_id", txn.AssistantID.String()),
		zap.Int64("amount_cents", int64(txn.AmountCents)))
	return nil
}

// GetByID retrieves a cost transaction scoped to a tenant
func (r *CostRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CostTransaction, error) {
	query := `SELECT ` + costColumns + ` FROM cost_transactions WHERE tenant_id = $1 AND id = $2`
	return scanCostTransaction(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id))
}

// GetByIdempotencyKey retrieves an existing transaction for a dedupe key
func (r *CostRepository) GetByIdempotencyKey(ctx context.Context, assistantID uuid.UUID, key string) (*models.CostTransaction, error) {
	query := `SELECT ` + costColumns + ` FROM cost_transactions WHERE assistant_id = $1 AND idempotency_key = $2`
	return scanCostTransaction(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, assistantID, key))
}

// ListByTenant retrieves cost transactions for a tenant, newest first
func (r *CostRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.CostTransaction, error) {
	query := `
		SELECT ` + costColumns + `
		FROM cost_transactions
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.CostTransaction
	for rows.Next() {
		txn := &models.CostTransaction{}
		err := rows.Scan(
			&txn.ID,
			&txn.TenantID,
			&txn.AssistantID,
			&txn.Provider,
			&txn.AmountCents,
			&txn.IdempotencyKey,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cost transaction rows: %w", err)
	}

	return txns, nil
}

// SumByAssistant sums transaction amounts for one assistant in [from, to)
func (r *CostRepository) SumByAssistant(ctx context.Context, assistantID uuid.UUID, from, to time.Time) (models.Cents, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM cost_transactions
		WHERE assistant_id = $1 AND created_at >= $2 AND created_at < $3
	`

	var total int64
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, assistantID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum assistant spend: %w", err)
	}
	return models.Cents(total), nil
}

// SumByTenant sums transaction amounts for a whole tenant in [from, to)
func (r *CostRepository) SumByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (models.Cents, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM cost_transactions
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
	`

	var total int64
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum tenant spend: %w", err)
	}
	return models.Cents(total), nil
}

// SumByProvider sums per-provider spend for a tenant in [from, to)
func (r *CostRepository) SumByProvider(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]models.Cents, error) {
	query := `
		SELECT provider, COALESCE(SUM(amount_cents), 0)
		FROM cost_transactions
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY provider
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum provider spend: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]models.Cents)
	for rows.Next() {
		var provider string
		var total int64
		if err := rows.Scan(&provider, &total); err != nil {
			return nil, fmt.Errorf("failed to scan provider spend: %w", err)
		}
		totals[provider] = models.Cents(total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider spend rows: %w", err)
	}

	return totals, nil
}

func scanCostTransaction(row *sql.Row) (*models.CostTransaction, error) {
	txn := &models.CostTransaction{}
	err := row.Scan(
		&txn.ID,
		&txn.TenantID,
		&txn.AssistantID,
		&txn.Provider,
		&txn.AmountCents,
		&txn.IdempotencyKey,
		&txn.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cost transaction: %w", err)
	}
	return txn, nil
}
