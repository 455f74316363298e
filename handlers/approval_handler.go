package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/approval"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// RejectApprovalRequest represents a request to reject a pending approval
type RejectApprovalRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ApprovalHandler handles approval HTTP requests
type ApprovalHandler struct {
	engine *approval.Engine
	logger *zap.Logger
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(engine *approval.Engine, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		engine: engine,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/approvals
func (h *ApprovalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	var status *models.ApprovalStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.ApprovalStatus(v)
		switch s {
		case models.ApprovalStatusPending, models.ApprovalStatusApproved,
			models.ApprovalStatusRejected, models.ApprovalStatusExpired:
			status = &s
		default:
			_ = utils.WriteBadRequest(w, "Invalid status filter", nil)
			return
		}
	}

	limit, offset := paginationParams(r)

	approvals, err := h.engine.List(ctx, tenantID, status, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, approvals)
}

// HandleGet handles GET /api/v1/approvals/{id}
func (h *ApprovalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	approvalID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "approval ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	resolved, err := h.engine.Get(ctx, tenantID, approvalID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, resolved)
}

// HandleApprove handles POST /api/v1/approvals/{id}/approve
func (h *ApprovalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	userID := middleware.GetUserIDFromContext(ctx)
	if userID == nil {
		_ = utils.WriteUnauthorized(w, "Missing user information")
		return
	}

	approvalID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "approval ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	resolved, err := h.engine.Approve(ctx, tenantID, approvalID, *userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("approval granted",
		zap.String("request_id", requestID),
		zap.String("approval_id", approvalID.String()),
		zap.String("approved_by", userID.String()))

	_ = utils.WriteOK(w, resolved)
}

// HandleReject handles POST /api/v1/approvals/{id}/reject
func (h *ApprovalHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	userID := middleware.GetUserIDFromContext(ctx)
	if userID == nil {
		_ = utils.WriteUnauthorized(w, "Missing user information")
		return
	}

	approvalID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "approval ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req RejectApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	resolved, err := h.engine.Reject(ctx, tenantID, approvalID, *userID, req.Reason)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("approval rejected",
		zap.String("request_id", requestID),
		zap.String("approval_id", approvalID.String()),
		zap.String("rejected_by", userID.String()))

	_ = utils.WriteOK(w, resolved)
}
