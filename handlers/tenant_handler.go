package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/tenant"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// CreateTenantRequest represents a request to create a tenant
type CreateTenantRequest struct {
	Name            string     `json:"name" validate:"required"`
	Slug            string     `json:"slug" validate:"required"`
	Type            string     `json:"type" validate:"required,oneof=holding subsidiary primary"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	MonthlyCapCents int64      `json:"monthly_cap_cents" validate:"gte=0"`
	MaxAssistants   int        `json:"max_assistants" validate:"gte=0"`
	MaxUsers        int        `json:"max_users" validate:"gte=0"`
	Timezone        string     `json:"timezone,omitempty"`
}

// UpdateTenantRequest represents a request to update a tenant
type UpdateTenantRequest struct {
	Name            *string `json:"name,omitempty"`
	MonthlyCapCents *int64  `json:"monthly_cap_cents,omitempty" validate:"omitempty,gte=0"`
	MaxAssistants   *int    `json:"max_assistants,omitempty" validate:"omitempty,gte=0"`
	MaxUsers        *int    `json:"max_users,omitempty" validate:"omitempty,gte=0"`
	Timezone        *string `json:"timezone,omitempty"`
}

// CreateUserRequest represents a request to add a user to a tenant
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
	Role  string `json:"role" validate:"required,oneof=super_admin admin member viewer"`
}

// TenantHandler handles tenant HTTP requests
type TenantHandler struct {
	tenants *tenant.Service
	logger  *zap.Logger
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenants *tenant.Service, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{
		tenants: tenants,
		logger:  logger,
	}
}

// HandleCreate handles POST /api/v1/tenants
func (h *TenantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CreateTenantRequest
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

	created, err := h.tenants.Create(ctx, tenant.CreateTenantRequest{
		Name:            req.Name,
		Slug:            req.Slug,
		Type:            models.TenantType(req.Type),
		ParentID:        req.ParentID,
		MonthlyCapCents: models.Cents(req.MonthlyCapCents),
		MaxAssistants:   req.MaxAssistants,
		MaxUsers:        req.MaxUsers,
		Timezone:        req.Timezone,
		ActorID:         actorID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("tenant created",
		zap.String("request_id", requestID),
		zap.String("tenant_id", created.ID.String()),
		zap.String("slug", created.Slug))

	_ = utils.WriteCreated(w, created)
}

// HandleList handles GET /api/v1/tenants
func (h *TenantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	tenants, err := h.tenants.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, tenants)
}

// HandleGet handles GET /api/v1/tenants/{id}
func (h *TenantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "tenant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	found, err := h.tenants.Get(r.Context(), tenantID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, found)
}

// HandleListChildren handles GET /api/v1/tenants/{id}/children
func (h *TenantHandler) HandleListChildren(w http.ResponseWriter, r *http.Request) {
	tenantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "tenant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	children, err := h.tenants.ListChildren(r.Context(), tenantID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, children)
}

// HandleUpdate handles PATCH /api/v1/tenants/{id}
func (h *TenantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "tenant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req UpdateTenantRequest
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

	update := tenant.UpdateTenantRequest{
		Name:          req.Name,
		MaxAssistants: req.MaxAssistants,
		MaxUsers:      req.MaxUsers,
		Timezone:      req.Timezone,
		ActorID:       actorID,
	}
	if req.MonthlyCapCents != nil {
		cap := models.Cents(*req.MonthlyCapCents)
		update.MonthlyCapCents = &cap
	}

	updated, err := h.tenants.Update(ctx, tenantID, update)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("tenant updated",
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenantID.String()))

	_ = utils.WriteOK(w, updated)
}

// HandleCreateUser handles POST /api/v1/tenants/{id}/users
func (h *TenantHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "tenant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.tenants.CreateUser(ctx, tenantID, req.Email, req.Name, models.UserRole(req.Role))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user created",
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()))

	_ = utils.WriteCreated(w, user)
}

// HandleGetUser handles GET /api/v1/tenants/{id}/users/{userID}
func (h *TenantHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	tenantID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "tenant ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	userID, err := utils.ParseUUIDParam(chi.URLParam(r, "userID"), "user ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	user, err := h.tenants.GetUser(r.Context(), tenantID, userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}
