package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/assistant"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// CreateAssistantRequest represents a request to register an assistant
type CreateAssistantRequest struct {
	Name          string `json:"name" validate:"required"`
	Slug          string `json:"slug" validate:"required"`
	Type          string `json:"type" validate:"required"`
	RiskTier      int    `json:"risk_tier" validate:"gte=1,lte=5"`
	DailyCapCents int64  `json:"daily_cap_cents" validate:"gte=0"`
}

// UpdateAssistantRequest represents a request to update an assistant
type UpdateAssistantRequest struct {
	Name          *string `json:"name,omitempty"`
	RiskTier      *int    `json:"risk_tier,omitempty" validate:"omitempty,gte=1,lte=5"`
	DailyCapCents *int64  `json:"daily_cap_cents,omitempty" validate:"omitempty,gte=0"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive awaiting_approval error"`
}

// AssistantHandler handles assistant HTTP requests
type AssistantHandler struct {
	assistants *assistant.Service
	logger     *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(assistants *assistant.Service, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistants: assistants,
		logger:     logger,
	}
}

// HandleCreate handles POST /api/v1/assistants
func (h *AssistantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	var req CreateAssistantRequest
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

	created, err := h.assistants.Create(ctx, assistant.CreateAssistantRequest{
		TenantID:      tenantID,
		Name:          req.Name,
		Slug:          req.Slug,
		Type:          req.Type,
		RiskTier:      req.RiskTier,
		DailyCapCents: models.Cents(req.DailyCapCents),
		ActorID:       actorID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("assistant created",
		zap.String("request_id", requestID),
		zap.String("assistant_id", created.ID.String()),
		zap.Int("risk_tier", created.RiskTier))

	_ = utils.WriteCreated(w, created)
}

// HandleList handles GET /api/v1/assistants
func (h *AssistantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	assistants, err := h.assistants.List(ctx, tenantID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, assistants)
}

// HandleGet handles GET /api/v1/assistants/{id}
func (h *AssistantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	assistantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "assistant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	found, err := h.assistants.Get(ctx, tenantID, assistantID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, found)
}

// HandleUpdate handles PATCH /api/v1/assistants/{id}
func (h *AssistantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	assistantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "assistant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req UpdateAssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	update := assistant.UpdateAssistantRequest{
		Name:     req.Name,
		RiskTier: req.RiskTier,
		ActorID:  actorID,
	}
	if req.DailyCapCents != nil {
		cap := models.Cents(*req.DailyCapCents)
		update.DailyCapCents = &cap
	}
	if req.Status != nil {
		status := models.AssistantStatus(*req.Status)
		update.Status = &status
	}

	updated, err := h.assistants.Update(ctx, tenantID, assistantID, update)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("assistant updated",
		zap.String("request_id", requestID),
		zap.String("assistant_id", assistantID.String()))

	_ = utils.WriteOK(w, updated)
}

// HandleDelete handles DELETE /api/v1/assistants/{id}
func (h *AssistantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	assistantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "assistant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	if err := h.assistants.Delete(ctx, tenantID, assistantID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("assistant deleted",
		zap.String("request_id", requestID),
		zap.String("assistant_id", assistantID.String()))

	utils.WriteNoContent(w)
}
