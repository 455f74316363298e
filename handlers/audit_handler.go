package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(recorder *audit.Recorder, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// HandleList handles GET /api/v1/audit-logs
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	entries, err := h.recorder.Query(ctx, tenantID, filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, entries)
}

// HandleGet handles GET /api/v1/audit-logs/{id}
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := middleware.GetTenantIDFromContext(ctx)
	if tenantID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	entryID, err := utils.ParseUUIDParam(chi.URLParam(r, "id"), "audit log ID")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	entry, err := h.recorder.GetByID(ctx, tenantID, entryID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, entry)
}

// auditFilterFromQuery builds an audit filter from query parameters
func auditFilterFromQuery(r *http.Request) (repositories.AuditFilter, error) {
	filter := repositories.AuditFilter{}
	q := r.URL.Query()

	if v := q.Get("action"); v != "" {
		filter.Action = models.AuditAction(v)
	}
	if v := q.Get("entity_type"); v != "" {
		filter.EntityType = v
	}
	if v := q.Get("actor_id"); v != "" {
		actorID, err := utils.ParseUUIDParam(v, "actor_id")
		if err != nil {
			return filter, err
		}
		filter.ActorID = &actorID
	}
	if v := q.Get("entity_id"); v != "" {
		entityID, err := utils.ParseUUIDParam(v, "entity_id")
		if err != nil {
			return filter, err
		}
		filter.EntityID = &entityID
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.To = to
	}

	filter.Limit, filter.Offset = paginationParams(r)
	return filter, nil
}
