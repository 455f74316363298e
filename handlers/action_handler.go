package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/action"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// AuthorizeActionRequest represents a request to authorize a proposed action
type AuthorizeActionRequest struct {
	AssistantID        uuid.UUID `json:"assistant_id" validate:"required"`
	Title              string    `json:"title" validate:"required"`
	Priority           int       `json:"priority" validate:"gte=0,lte=4"`
	RiskLevel          int       `json:"risk_level" validate:"gte=1,lte=5"`
	EstimatedCostCents int64     `json:"estimated_cost_cents" validate:"gte=0"`
}

// CompleteActionRequest represents the runtime reporting an executed action
type CompleteActionRequest struct {
	Provider        string  `json:"provider" validate:"required"`
	ActualCostCents int64   `json:"actual_cost_cents" validate:"gte=0"`
	Result          *string `json:"result,omitempty"`
	IdempotencyKey  *string `json:"idempotency_key,omitempty"`
}

// ActionHandler handles action authorization and completion requests
type ActionHandler struct {
	actions *action.Service
	logger  *zap.Logger
}

// NewActionHandler creates a new ActionHandler
func NewActionHandler(actions *action.Service, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{
		actions: actions,
		logger:  logger,
	}
}

// HandleAuthorize handles POST /api/v1/actions/authorize
func (h *ActionHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	var req AuthorizeActionRequest
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

	// Authorization requests come from assistant runtimes; a user context, when
	// present, attributes the request to that user instead
	requestedBy := req.AssistantID
	actorType := models.ActorTypeAssistant
	if userID := middleware.GetUserIDFromContext(ctx); userID != nil {
		requestedBy = *userID
		actorType = models.ActorTypeUser
	}

	result, err := h.actions.Authorize(ctx, action.AuthorizeRequest{
		TenantID:           tenantID,
		AssistantID:        req.AssistantID,
		Title:              req.Title,
		Priority:           req.Priority,
		RiskLevel:          req.RiskLevel,
		EstimatedCostCents: models.Cents(req.EstimatedCostCents),
		RequestedBy:        requestedBy,
		ActorType:          actorType,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("action authorized",
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenantID.String()),
		zap.String("assistant_id", req.AssistantID.String()),
		zap.String("effect", string(result.Decision.Effect)))

	_ = utils.WriteOK(w, result)
}

// HandleComplete handles POST /api/v1/work-items/{id}/complete
func (h *ActionHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	workItemID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "work item ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req CompleteActionRequest
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

	var actorID uuid.UUID
	if userID := middleware.GetUserIDFromContext(ctx); userID != nil {
		actorID = *userID
	}

	result, err := h.actions.Complete(ctx, action.CompleteRequest{
		TenantID:        tenantID,
		WorkItemID:      workItemID,
		Provider:        req.Provider,
		ActualCostCents: models.Cents(req.ActualCostCents),
		Result:          req.Result,
		ActorID:         actorID,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("work item completed",
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenantID.String()),
		zap.String("work_item_id", workItemID.String()),
		zap.Int64("actual_cost_cents", req.ActualCostCents))

	_ = utils.WriteOK(w, result)
}
