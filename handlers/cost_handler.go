package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/ledger"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/tenant"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// PostCostRequest represents a request to post a cost transaction directly,
// outside the work item lifecycle
type PostCostRequest struct {
	AssistantID    uuid.UUID `json:"assistant_id" validate:"required"`
	Provider       string    `json:"provider" validate:"required"`
	AmountCents    int64     `json:"amount_cents" validate:"required,gt=0"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
}

// CostHandler handles cost ledger HTTP requests
type CostHandler struct {
	ledger  *ledger.Service
	tenants *tenant.Service
	logger  *zap.Logger
}

// NewCostHandler creates a new CostHandler
func NewCostHandler(ledgerSvc *ledger.Service, tenants *tenant.Service, logger *zap.Logger) *CostHandler {
	return &CostHandler{
		ledger:  ledgerSvc,
		tenants: tenants,
		logger:  logger,
	}
}

// HandlePostCost handles POST /api/v1/costs
func (h *CostHandler) HandlePostCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	var req PostCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	actorType := models.ActorTypeAssistant
	actorID := req.AssistantID
	if userID := middleware.GetUserIDFromContext(ctx); userID != nil {
		actorType = models.ActorTypeUser
		actorID = *userID
	}

	txn, err := h.ledger.PostCost(ctx, ledger.PostCostRequest{
		TenantID:       tenantID,
		AssistantID:    req.AssistantID,
		ActorType:      actorType,
		ActorID:        actorID,
		Provider:       req.Provider,
		AmountCents:    models.Cents(req.AmountCents),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("cost posted",
		zap.String("request_id", requestID),
		zap.String("transaction_id", txn.ID.String()),
		zap.Int64("amount_cents", req.AmountCents))

	_ = utils.WriteCreated(w, txn)
}

// HandleList handles GET /api/v1/costs
func (h *CostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	limit, offset := paginationParams(r)

	txns, err := h.ledger.ListTransactions(ctx, tenantID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, txns)
}

// HandleGet handles GET /api/v1/costs/{id}
func (h *CostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	txnID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "transaction ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	txn, err := h.ledger.GetTransaction(ctx, tenantID, txnID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, txn)
}

// HandleSummary handles GET /api/v1/costs/summary
func (h *CostHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	// Spend windows are calendar day and month in the tenant's timezone
	found, err := h.tenants.Get(ctx, tenantID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	summary, err := h.ledger.Summary(ctx, found)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, summary)
}
