package action

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/approval"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/governor"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/ledger"
)

// AuthorizeRequest represents a proposed action submitted by the agent
// runtime: what the assistant wants to do, its declared risk level, and the
// estimated cost.
type AuthorizeRequest struct {
	TenantID           uuid.UUID
	AssistantID        uuid.UUID
	Title              string
	Priority           int
	RiskLevel          int
	EstimatedCostCents models.Cents
	RequestedBy        uuid.UUID
	ActorType          models.ActorType
}

// AuthorizeResult carries the decision plus the records it produced. Deny
// produces no work item; the approval is set only when review is required.
type AuthorizeResult struct {
	Decision governor.Decision `json:"decision"`
	WorkItem *models.WorkItem  `json:"work_item"`
	Approval *models.Approval  `json:"approval,omitempty"`
}

// CompleteRequest represents the runtime reporting an executed action: the
// actual cost to post and the outcome to store on the work item.
type CompleteRequest struct {
	TenantID        uuid.UUID
	WorkItemID      uuid.UUID
	Provider        string
	ActualCostCents models.Cents
	Result          *string
	ActorID         uuid.UUID
	IdempotencyKey  *string
}

// CompleteResult carries the completed work item and the posted transaction
type CompleteResult struct {
	WorkItem    *models.WorkItem        `json:"work_item"`
	Transaction *models.CostTransaction `json:"transaction"`
}

// Service orchestrates the action lifecycle: authorization through the
// governor, approval routing for overages and high-risk actions, and cost
// posting on completion. It never executes actions itself.
type Service struct {
	workItems  repositories.WorkItemRepository
	assistants repositories.AssistantRepository
	tenants    repositories.TenantRepository
	txManager  repositories.TransactionManager
	gov        *governor.Governor
	approvals  *approval.Engine
	ledger     *ledger.Service
	recorder   *audit.Recorder
	logger     *zap.Logger
}

// NewService creates a new action Service instance
func NewService(
	workItems repositories.WorkItemRepository,
	assistants repositories.AssistantRepository,
	tenants repositories.TenantRepository,
	txManager repositories.TransactionManager,
	gov *governor.Governor,
	approvals *approval.Engine,
	ledgerSvc *ledger.Service,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		workItems:  workItems,
		assistants: assistants,
		tenants:    tenants,
		txManager:  txManager,
		gov:        gov,
		approvals:  approvals,
		ledger:     ledgerSvc,
		recorder:   recorder,
		logger:     logger,
	}
}

// Authorize evaluates a proposed action. Allow starts the work item
// immediately; RequireApproval parks it behind a pending approval; Deny
// records the refusal and creates nothing.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	if req.Title == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "title")
	}

	tenant, err := s.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTenantNotFound
		}
		return nil, services.WrapInternal("failed to load tenant", err)
	}

	assistant, err := s.assistants.GetByID(ctx, req.TenantID, req.AssistantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAssistantNotFound
		}
		return nil, services.WrapInternal("failed to load assistant", err)
	}

	decision, err := s.gov.Authorize(ctx, governor.AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          assistant,
		EstimatedCostCents: req.EstimatedCostCents,
		RiskLevel:          req.RiskLevel,
	})
	if err != nil {
		return nil, err
	}

	actorType := req.ActorType
	if actorType == "" {
		actorType = models.ActorTypeAssistant
	}

	if decision.Effect == governor.EffectDeny {
		entry := models.NewAuditLogEntry(req.TenantID, actorType, req.RequestedBy,
			models.AuditActionActionDenied, models.Assistant{}.TableName(), req.AssistantID).
			WithDetails(map[string]interface{}{
				"title":  req.Title,
				"reason": decision.Reason,
			})
		if err := s.recorder.Record(ctx, entry); err != nil {
			return nil, err
		}
		return &AuthorizeResult{Decision: decision}, nil
	}

	item := models.NewWorkItem(req.TenantID, req.AssistantID, req.Title, req.Priority, req.RiskLevel)
	if decision.Allowed() {
		item.Status = models.WorkItemStatusInProgress
	}

	err = s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.workItems.Create(ctx, item); err != nil {
			return err
		}
		created := models.NewAuditLogEntry(req.TenantID, actorType, req.RequestedBy,
			models.AuditActionWorkItemCreated, models.WorkItem{}.TableName(), item.ID).
			WithDetails(map[string]interface{}{
				"title":      req.Title,
				"risk_level": req.RiskLevel,
			})
		if err := s.recorder.Record(ctx, created); err != nil {
			return err
		}

		if decision.Allowed() {
			authorized := models.NewAuditLogEntry(req.TenantID, actorType, req.RequestedBy,
				models.AuditActionActionAuthorized, models.WorkItem{}.TableName(), item.ID).
				WithDetails(map[string]interface{}{
					"estimated_cost_cents": int64(req.EstimatedCostCents),
				})
			return s.recorder.Record(ctx, authorized)
		}
		return nil
	})
	if err != nil {
		return nil, services.WrapInternal("failed to create work item", err)
	}

	result := &AuthorizeResult{Decision: decision, WorkItem: item}
	if decision.RequiresApproval() {
		apr, err := s.approvals.Create(ctx, approval.CreateRequest{
			TenantID:       req.TenantID,
			WorkItemID:     item.ID,
			RiskLevel:      req.RiskLevel,
			RequestedBy:    req.RequestedBy,
			ActorType:      actorType,
			ContextSummary: decision.Reason + ": " + req.Title,
		})
		if err != nil {
			return nil, err
		}
		item.Status = models.WorkItemStatusAwaitingApproval
		result.Approval = apr
	}

	return result, nil
}

// Complete reports an executed action: posts the actual cost to the ledger
// and marks the work item completed. Only in-progress items can complete;
// reports against anything else are rejected and recorded.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	item, err := s.workItems.GetByID(ctx, req.TenantID, req.WorkItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrWorkItemNotFound
		}
		return nil, services.WrapInternal("failed to load work item", err)
	}

	if item.Status != models.WorkItemStatusInProgress {
		entry := models.NewAuditLogEntry(req.TenantID, models.ActorTypeAssistant, req.ActorID,
			models.AuditActionCostRejected, models.WorkItem{}.TableName(), item.ID).
			WithDetails(map[string]interface{}{
				"status":       string(item.Status),
				"amount_cents": int64(req.ActualCostCents),
			})
		if err := s.recorder.Record(ctx, entry); err != nil {
			return nil, err
		}
		return nil, services.NewDomainError(services.ErrorTypeConflict, "work item not in progress", nil).
			WithDetail("current_status", string(item.Status))
	}

	txn, err := s.ledger.PostCost(ctx, ledger.PostCostRequest{
		TenantID:       req.TenantID,
		AssistantID:    item.AssistantID,
		ActorType:      models.ActorTypeAssistant,
		ActorID:        req.ActorID,
		Provider:       req.Provider,
		AmountCents:    req.ActualCostCents,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.workItems.Complete(ctx, req.TenantID, item.ID, req.Result, now); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(req.TenantID, models.ActorTypeAssistant, req.ActorID,
			models.AuditActionWorkItemCompleted, models.WorkItem{}.TableName(), item.ID).
			WithDetails(map[string]interface{}{
				"transaction_id": txn.ID,
				"amount_cents":   int64(req.ActualCostCents),
			})
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		return nil, services.WrapInternal("failed to complete work item", err)
	}

	item.Status = models.WorkItemStatusCompleted
	item.CompletedAt = &now
	item.Result = req.Result

	s.logger.Info("work item completed",
		zap.String("work_item_id", item.ID.String()),
		zap.String("transaction_id", txn.ID.String()))
	return &CompleteResult{WorkItem: item, Transaction: txn}, nil
}

// CreateWorkItem creates a work item directly in the backlog, outside the
// authorization flow
func (s *Service) CreateWorkItem(ctx context.Context, tenantID, assistantID uuid.UUID, title string, priority, riskLevel int, actorID uuid.UUID) (*models.WorkItem, error) {
	if title == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "title")
	}
	if !models.ValidRiskTier(riskLevel) {
		return nil, services.ErrInvalidRiskLevel.WithDetail("risk_level", riskLevel)
	}

	if _, err := s.assistants.GetByID(ctx, tenantID, assistantID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAssistantNotFound
		}
		return nil, services.WrapInternal("failed to load assistant", err)
	}

	item := models.NewWorkItem(tenantID, assistantID, title, priority, riskLevel)
	err := s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.workItems.Create(ctx, item); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(tenantID, models.ActorTypeUser, actorID,
			models.AuditActionWorkItemCreated, models.WorkItem{}.TableName(), item.ID).
			WithDetails(map[string]interface{}{"title": title})
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		return nil, services.WrapInternal("failed to create work item", err)
	}
	return item, nil
}

// GetWorkItem retrieves a work item scoped to a tenant
func (s *Service) GetWorkItem(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkItem, error) {
	item, err := s.workItems.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrWorkItemNotFound
		}
		return nil, services.WrapInternal("failed to get work item", err)
	}
	return item, nil
}

// ListWorkItems retrieves work items for a tenant with pagination
func (s *Service) ListWorkItems(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.WorkItem, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.workItems.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list work items", err)
	}
	return items, nil
}
