package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

const auditColumns = `id, tenant_id, actor_type, actor_id, action, entity_type, entity_id, details, timestamp`

// Insert appends an audit log entry. The timestamp is assigned by the
// database server so entries are monotonically ordered per tenant.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (id, tenant_id, actor_type, actor_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING timestamp
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.ActorType,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
	).Scan(&entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted",
		zap.String("id", entry.ID.String()),
		zap.String("action", string(entry.Action)))
	return nil
}

// GetByID retrieves an audit log entry scoped to a tenant
func (r *AuditRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE tenant_id = $1 AND id = $2`

	entry := &models.AuditLogEntry{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id).Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.ActorType,
		&entry.ActorID,
		&entry.Action,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Details,
		&entry.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	return entry, nil
}

// Query retrieves entries for a tenant matching the filter, newest first
func (r *AuditRepository) Query(ctx context.Context, tenantID uuid.UUID, filter repositories.AuditFilter) ([]*models.AuditLogEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + auditColumns + ` FROM audit_logs WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	next := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Action != "" {
		sb.WriteString(` AND action = ` + next(filter.Action))
	}
	if filter.ActorID != nil {
		sb.WriteString(` AND actor_id = ` + next(*filter.ActorID))
	}
	if filter.EntityType != "" {
		sb.WriteString(` AND entity_type = ` + next(filter.EntityType))
	}
	if filter.EntityID != nil {
		sb.WriteString(` AND entity_id = ` + next(*filter.EntityID))
	}
	if !filter.From.IsZero() {
		sb.WriteString(` AND timestamp >= ` + next(filter.From))
	}
	if !filter.To.IsZero() {
		sb.WriteString(` AND timestamp <= ` + next(filter.To))
	}

	sb.WriteString(` ORDER BY timestamp DESC`)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	sb.WriteString(` LIMIT ` + next(limit))
	if filter.Offset > 0 {
		sb.WriteString(` OFFSET ` + next(filter.Offset))
	}

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.ActorType,
			&entry.ActorID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return entries, nil
}
