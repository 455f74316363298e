package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/auth"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/tenant"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/utils"
)

// IssueTokenRequest represents a request to mint a token for a tenant user
type IssueTokenRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	UserID   uuid.UUID `json:"user_id" validate:"required"`
}

// IssueTokenResponse carries the minted bearer token
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	IssuedAt  time.Time `json:"issued_at"`
}

// TokenHandler mints bearer tokens for tenant users and assistant runtimes
type TokenHandler struct {
	tenants *tenant.Service
	tokens  *auth.TokenService
	logger  *zap.Logger
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(tenants *tenant.Service, tokens *auth.TokenService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		tenants: tenants,
		tokens:  tokens,
		logger:  logger,
	}
}

// HandleIssueToken handles POST /api/v1/auth/tokens
func (h *TokenHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.tenants.GetUser(ctx, req.TenantID, req.UserID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	h.logger.Info("token issued",
		zap.String("request_id", requestID),
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("user_id", req.UserID.String()))

	_ = utils.WriteOK(w, IssueTokenResponse{
		Token:     token,
		TokenType: "Bearer",
		IssuedAt:  time.Now().UTC(),
	})
}
