package ledger

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

// PostCostRequest represents a request to post a cost transaction
type PostCostRequest struct {
	TenantID    uuid.UUID
	AssistantID uuid.UUID
	ActorType   models.ActorType
	ActorID     uuid.UUID
	Provider    string
	AmountCents models.Cents

	// IdempotencyKey, when set, dedupes retries of the same report: a second
	// post with the same key returns the original transaction unchanged.
	IdempotencyKey *string
}

// SpendSummary represents aggregated spend for a tenant
type SpendSummary struct {
	DailySpendCents   models.Cents            `json:"daily_spend_cents"`
	MonthlySpendCents models.Cents            `json:"monthly_spend_cents"`
	MonthlyCapCents   models.Cents            `json:"monthly_cap_cents"`
	ByProvider        map[string]models.Cents `json:"by_provider"`
}

// Service is the append-only cost ledger. Every transaction commits together
// with its audit entry; aggregates are sums over the transaction log, served
// through the spend cache.
type Service struct {
	costs      repositories.CostRepository
	assistants repositories.AssistantRepository
	txManager  repositories.TransactionManager
	recorder   *audit.Recorder
	cache      *SpendCache
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new ledger Service instance
func NewService(
	costs repositories.CostRepository,
	assistants repositories.AssistantRepository,
	txManager repositories.TransactionManager,
	recorder *audit.Recorder,
	cache *SpendCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		costs:      costs,
		assistants: assistants,
		txManager:  txManager,
		recorder:   recorder,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// PostCost appends a cost transaction. The amount is validated before any
// side effect; the insert and its audit entry commit in one database
// transaction. A duplicate idempotency key returns the existing transaction.
func (s *Service) PostCost(ctx context.Context, req PostCostRequest) (*models.CostTransaction, error) {
	if req.AmountCents <= 0 {
		return nil, services.ErrInvalidAmount.WithDetail("amount_cents", int64(req.AmountCents))
	}
	if req.Provider == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "provider")
	}

	assistant, err := s.assistants.GetByID(ctx, req.TenantID, req.AssistantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAssistantNotFound
		}
		return nil, services.WrapInternal("failed to load assistant", err)
	}

	txn := models.NewCostTransaction(req.TenantID, req.AssistantID, req.Provider, req.AmountCents)
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		txn.WithIdempotencyKey(*req.IdempotencyKey)
	}

	err = s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.costs.Insert(ctx, txn); err != nil {
			return err
		}

		entry := models.NewAuditLogEntry(req.TenantID, req.ActorType, req.ActorID,
			models.AuditActionCostPosted, models.CostTransaction{}.TableName(), txn.ID).
			WithDetails(map[string]interface{}{
				"assistant_id": assistant.ID,
				"provider":     req.Provider,
				"amount_cents": int64(req.AmountCents),
			})
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) && txn.IdempotencyKey != nil {
			existing, lookupErr := s.costs.GetByIdempotencyKey(ctx, req.AssistantID, *txn.IdempotencyKey)
			if lookupErr != nil {
				return nil, services.WrapInternal("failed to load deduped transaction", lookupErr)
			}
			s.logger.Debug("cost post deduped on idempotency key",
				zap.String("assistant_id", req.AssistantID.String()),
				zap.String("transaction_id", existing.ID.String()))
			return existing, nil
		}
		return nil, services.WrapInternal("failed to post cost", err)
	}

	s.cache.InvalidateAssistant(req.AssistantID)
	s.cache.InvalidateTenant(req.TenantID)

	s.logger.Info("cost posted",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("assistant_id", req.AssistantID.String()),
		zap.String("provider", req.Provider),
		zap.Int64("amount_cents", int64(req.AmountCents)))
	return txn, nil
}

// DailySpend returns the assistant's spend for the current calendar day in
// the tenant's timezone.
func (s *Service) DailySpend(ctx context.Context, tenant *models.Tenant, assistantID uuid.UUID) (models.Cents, error) {
	from, to := DayBounds(s.now(), tenant.Location())
	key := SpendKey{TenantID: tenant.ID, AssistantID: &assistantID, Period: dayKey(from)}

	if amount, ok := s.cache.Get(key); ok {
		return amount, nil
	}

	amount, err := s.costs.SumByAssistant(ctx, assistantID, from, to)
	if err != nil {
		return 0, services.WrapInternal("failed to sum daily spend", err)
	}
	s.cache.Set(key, amount)
	return amount, nil
}

// MonthlySpend returns the tenant-wide spend for the current calendar month
// in the tenant's timezone.
func (s *Service) MonthlySpend(ctx context.Context, tenant *models.Tenant) (models.Cents, error) {
	from, to := MonthBounds(s.now(), tenant.Location())
	key := SpendKey{TenantID: tenant.ID, Period: monthKey(from)}

	if amount, ok := s.cache.Get(key); ok {
		return amount, nil
	}

	amount, err := s.costs.SumByTenant(ctx, tenant.ID, from, to)
	if err != nil {
		return 0, services.WrapInternal("failed to sum monthly spend", err)
	}
	s.cache.Set(key, amount)
	return amount, nil
}

// Summary returns the tenant's current-day and current-month spend plus the
// per-provider breakdown for the month. Always computed by summation.
func (s *Service) Summary(ctx context.Context, tenant *models.Tenant) (*SpendSummary, error) {
	now := s.now()
	loc := tenant.Location()

	dayFrom, dayTo := DayBounds(now, loc)
	daily, err := s.costs.SumByTenant(ctx, tenant.ID, dayFrom, dayTo)
	if err != nil {
		return nil, services.WrapInternal("failed to sum daily spend", err)
	}

	monthFrom, monthTo := MonthBounds(now, loc)
	monthly, err := s.costs.SumByTenant(ctx, tenant.ID, monthFrom, monthTo)
	if err != nil {
		return nil, services.WrapInternal("failed to sum monthly spend", err)
	}

	byProvider, err := s.costs.SumByProvider(ctx, tenant.ID, monthFrom, monthTo)
	if err != nil {
		return nil, services.WrapInternal("failed to sum provider spend", err)
	}

	return &SpendSummary{
		DailySpendCents:   daily,
		MonthlySpendCents: monthly,
		MonthlyCapCents:   tenant.MonthlyCapCents,
		ByProvider:        byProvider,
	}, nil
}

// ListTransactions retrieves cost transactions for a tenant, newest first
func (s *Service) ListTransactions(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.CostTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	txns, err := s.costs.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list cost transactions", err)
	}
	return txns, nil
}

// GetTransaction retrieves one cost transaction scoped to a tenant
func (s *Service) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*models.CostTransaction, error) {
	txn, err := s.costs.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTransactionNotFound
		}
		return nil, services.WrapInternal("failed to get cost transaction", err)
	}
	return txn, nil
}

// InvalidateAssistant drops cached aggregates for an assistant. Called by the
// change feed on cost_transactions notifications.
func (s *Service) InvalidateAssistant(assistantID uuid.UUID) {
	s.cache.InvalidateAssistant(assistantID)
}

// InvalidateTenant drops all cached aggregates for a tenant
func (s *Service) InvalidateTenant(tenantID uuid.UUID) {
	s.cache.InvalidateTenant(tenantID)
}
