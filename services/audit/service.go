package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
)

// Recorder writes the audit trail with write-ahead discipline: Record runs
// inside the caller's database transaction, so if the audit insert fails the
// originating state change rolls back with it. An unaudited transition never
// commits.
type Recorder struct {
	auditRepo repositories.AuditRepository
	logger    *zap.Logger
}

// NewRecorder creates a new Recorder instance
func NewRecorder(auditRepo repositories.AuditRepository, logger *zap.Logger) *Recorder {
	return &Recorder{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one audit entry. Never fails silently: any sink error is
// returned to the caller, which must treat its own operation as not done.
func (r *Recorder) Record(ctx context.Context, entry *models.AuditLogEntry) error {
	if err := r.auditRepo.Insert(ctx, entry); err != nil {
		r.logger.Error("audit write failed",
			zap.Error(err),
			zap.String("action", string(entry.Action)),
			zap.String("tenant_id", entry.TenantID.String()))
		return services.WrapError(services.ErrorTypeInternal, "audit write failed", err)
	}
	return nil
}

// Query retrieves audit entries for a tenant, newest first
func (r *Recorder) Query(ctx context.Context, tenantID uuid.UUID, filter repositories.AuditFilter) ([]*models.AuditLogEntry, error) {
	entries, err := r.auditRepo.Query(ctx, tenantID, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to query audit logs", err)
	}
	return entries, nil
}

// GetByID retrieves one audit entry scoped to a tenant
func (r *Recorder) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLogEntry, error) {
	entry, err := r.auditRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, "audit log not found", nil)
		}
		return nil, services.WrapInternal("failed to get audit log", err)
	}
	return entry, nil
}
