package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/action"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// CreateWorkItemRequest represents a request to create a backlog work item
type CreateWorkItemRequest struct {
	AssistantID uuid.UUID `json:"assistant_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Priority    int       `json:"priority" validate:"gte=0,lte=4"`
	RiskLevel   int       `json:"risk_level" validate:"gte=1,lte=5"`
}

// WorkItemHandler handles work item HTTP requests
type WorkItemHandler struct {
	actions *action.Service
	logger  *zap.Logger
}

// NewWorkItemHandler creates a new WorkItemHandler
func NewWorkItemHandler(actions *action.Service, logger *zap.Logger) *WorkItemHandler {
	return &WorkItemHandler{
		actions: actions,
		logger:  logger,
	}
}

// HandleCreate handles POST /api/v1/work-items
func (h *WorkItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	var req CreateWorkItemRequest
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

	item, err := h.actions.CreateWorkItem(ctx, tenantID, req.AssistantID,
		req.Title, req.Priority, req.RiskLevel, actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("work item created",
		zap.String("request_id", requestID),
		zap.String("work_item_id", item.ID.String()))

	_ = utils.WriteCreated(w, item)
}

// HandleList handles GET /api/v1/work-items
func (h *WorkItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	limit, offset := paginationParams(r)

	items, err := h.actions.ListWorkItems(ctx, tenantID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, items)
}

// HandleGet handles GET /api/v1/work-items/{id}
func (h *WorkItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	itemID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "work item ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	item, err := h.actions.GetWorkItem(ctx, tenantID, itemID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, item)
}

// paginationParams reads limit/offset query parameters with sane bounds
func paginationParams(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
