package assistant

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
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/tenant"
)

// CreateAssistantRequest represents a request to create an assistant
type CreateAssistantRequest struct {
	TenantID      uuid.UUID
	Name          string
	Slug          string
	Type          string
	RiskTier      int
	DailyCapCents models.Cents
	ActorID       uuid.UUID
}

// UpdateAssistantRequest carries the mutable assistant fields. Nil means
// unchanged. Risk tier changes are administrative edits, never computed.
type UpdateAssistantRequest struct {
	Name          *string
	RiskTier      *int
	DailyCapCents *models.Cents
	Status        *models.AssistantStatus
	ActorID       uuid.UUID
}

// Service manages assistants under their owning tenant
type Service struct {
	assistants repositories.AssistantRepository
	tenants    *tenant.Service
	txManager  repositories.TransactionManager
	recorder   *audit.Recorder
	logger     *zap.Logger
}

// NewService creates a new assistant Service instance
func NewService(
	assistants repositories.AssistantRepository,
	tenants *tenant.Service,
	txManager repositories.TransactionManager,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		assistants: assistants,
		tenants:    tenants,
		txManager:  txManager,
		recorder:   recorder,
		logger:     logger,
	}
}

// Create creates an assistant, enforcing the tenant's assistant quota
func (s *Service) Create(ctx context.Context, req CreateAssistantRequest) (*models.Assistant, error) {
	if req.Name == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "name")
	}
	if !models.ValidRiskTier(req.RiskTier) {
		return nil, services.ErrInvalidRiskLevel.WithDetail("risk_tier", req.RiskTier)
	}
	if req.DailyCapCents < 0 {
		return nil, services.ErrInvalidAmount.WithDetail("daily_cap_cents", int64(req.DailyCapCents))
	}

	owner, err := s.tenants.Get(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.tenants.CheckAssistantQuota(ctx, owner); err != nil {
		return nil, err
	}

	assistant := models.NewAssistant(req.TenantID, req.Name, req.Slug, req.Type, req.RiskTier, req.DailyCapCents)

	err = s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.assistants.Create(ctx, assistant); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(req.TenantID, models.ActorTypeUser, req.ActorID,
			models.AuditActionAssistantCreated, models.Assistant{}.TableName(), assistant.ID).
			WithDetails(map[string]interface{}{
				"slug":           assistant.Slug,
				"risk_tier":      assistant.RiskTier,
				"daily_cap_cents": int64(assistant.DailyCapCents),
			})
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateSlug.WithDetail("slug", req.Slug)
		}
		return nil, services.WrapInternal("failed to create assistant", err)
	}

	s.logger.Info("assistant created",
		zap.String("assistant_id", assistant.ID.String()),
		zap.String("tenant_id", req.TenantID.String()),
		zap.Int("risk_tier", assistant.RiskTier))
	return assistant, nil
}

// Get retrieves an assistant scoped to a tenant
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Assistant, error) {
	assistant, err := s.assistants.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAssistantNotFound
		}
		return nil, services.WrapInternal("failed to get assistant", err)
	}
	return assistant, nil
}

// List retrieves all assistants for a tenant
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Assistant, error) {
	assistants, err := s.assistants.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, services.WrapInternal("failed to list assistants", err)
	}
	return assistants, nil
}

// Update applies the provided fields to an assistant
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateAssistantRequest) (*models.Assistant, error) {
	assistant, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, services.ErrInvalidInput.WithDetail("field", "name")
		}
		assistant.Name = *req.Name
	}
	if req.RiskTier != nil {
		if !models.ValidRiskTier(*req.RiskTier) {
			return nil, services.ErrInvalidRiskLevel.WithDetail("risk_tier", *req.RiskTier)
		}
		assistant.RiskTier = *req.RiskTier
	}
	if req.DailyCapCents != nil {
		if *req.DailyCapCents < 0 {
			return nil, services.ErrInvalidAmount.WithDetail("daily_cap_cents", int64(*req.DailyCapCents))
		}
		assistant.DailyCapCents = *req.DailyCapCents
	}
	if req.Status != nil {
		switch *req.Status {
		case models.AssistantStatusActive, models.AssistantStatusInactive,
			models.AssistantStatusAwaitingApproval, models.AssistantStatusError:
			assistant.Status = *req.Status
		default:
			return nil, services.ErrInvalidInput.WithDetail("field", "status")
		}
	}
	assistant.UpdatedAt = time.Now()

	err = s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.assistants.Update(ctx, assistant); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(tenantID, models.ActorTypeUser, req.ActorID,
			models.AuditActionAssistantUpdated, models.Assistant{}.TableName(), assistant.ID).
			WithDetails(map[string]interface{}{
				"risk_tier": assistant.RiskTier,
				"status":    string(assistant.Status),
			})
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAssistantNotFound
		}
		return nil, services.WrapInternal("failed to update assistant", err)
	}

	return assistant, nil
}

// Delete removes an assistant scoped to a tenant
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.assistants.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrAssistantNotFound
		}
		return services.WrapInternal("failed to delete assistant", err)
	}
	return nil
}
