package governor

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
)

// Effect is the outcome class of an authorization decision
type Effect string

const (
	EffectAllow           Effect = "allow"
	EffectRequireApproval Effect = "require_approval"
	EffectDeny            Effect = "deny"
)

// Decision reasons. Cap checks run before the risk check, so when both apply
// the reason names the concrete numeric cause.
const (
	ReasonDailyCapExceeded   = "daily cap exceeded"
	ReasonMonthlyCapExceeded = "tenant monthly cap exceeded"
	ReasonRiskReview         = "risk tier requires review"
	ReasonAssistantInactive  = "assistant not active"
)

// Decision is a value, not an error: losing to policy is an ordinary outcome
// the caller routes on (Deny > RequireApproval > Allow).
type Decision struct {
	Effect Effect `json:"effect"`
	Reason string `json:"reason,omitempty"`

	ProjectedDailyCents   models.Cents `json:"projected_daily_cents"`
	DailyCapCents         models.Cents `json:"daily_cap_cents"`
	ProjectedMonthlyCents models.Cents `json:"projected_monthly_cents"`
	MonthlyCapCents       models.Cents `json:"monthly_cap_cents"`
}

// Allowed reports whether the action may proceed without human sign-off
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// RequiresApproval reports whether the action must be routed to a human
func (d Decision) RequiresApproval() bool {
	return d.Effect == EffectRequireApproval
}

// AuthorizeRequest represents a proposed action to authorize
type AuthorizeRequest struct {
	Tenant             *models.Tenant
	Assistant          *models.Assistant
	EstimatedCostCents models.Cents
	RiskLevel          int
}

// SpendReader provides the ledger aggregates the governor projects against
type SpendReader interface {
	DailySpend(ctx context.Context, tenant *models.Tenant, assistantID uuid.UUID) (models.Cents, error)
	MonthlySpend(ctx context.Context, tenant *models.Tenant) (models.Cents, error)
}

// Governor decides whether a proposed action is within policy. Authorize is a
// pure function of (ledger state, cap config, request): it never posts cost
// and never mutates anything, so the caller can retry posting independently
// of the decision.
type Governor struct {
	ledger    SpendReader
	threshold int // risk level at or above which review is always required
	logger    *zap.Logger
}

// NewGovernor creates a new Governor instance. threshold is the auto-approval
// boundary; risk levels at or above it always require review.
func NewGovernor(ledger SpendReader, threshold int, logger *zap.Logger) *Governor {
	return &Governor{
		ledger:    ledger,
		threshold: threshold,
		logger:    logger,
	}
}

// Authorize evaluates a proposed action against budget caps and the risk
// threshold. Budget and risk gates are independent; the most restrictive
// outcome wins. Deny is reserved for assistants that are not active.
func (g *Governor) Authorize(ctx context.Context, req AuthorizeRequest) (Decision, error) {
	if !models.ValidRiskTier(req.RiskLevel) {
		return Decision{}, services.ErrInvalidRiskLevel.WithDetail("risk_level", req.RiskLevel)
	}
	if req.EstimatedCostCents < 0 {
		return Decision{}, services.ErrInvalidAmount.WithDetail("estimated_cost_cents", int64(req.EstimatedCostCents))
	}

	decision := Decision{
		DailyCapCents:   req.Assistant.DailyCapCents,
		MonthlyCapCents: req.Tenant.MonthlyCapCents,
	}

	if !req.Assistant.IsActive() {
		decision.Effect = EffectDeny
		decision.Reason = ReasonAssistantInactive
		g.logDecision(req, decision)
		return decision, nil
	}

	dailySpend, err := g.ledger.DailySpend(ctx, req.Tenant, req.Assistant.ID)
	if err != nil {
		return Decision{}, err
	}
	decision.ProjectedDailyCents = dailySpend + req.EstimatedCostCents

	monthlySpend, err := g.ledger.MonthlySpend(ctx, req.Tenant)
	if err != nil {
		return Decision{}, err
	}
	decision.ProjectedMonthlyCents = monthlySpend + req.EstimatedCostCents

	switch {
	case req.Assistant.DailyCapCents > 0 && decision.ProjectedDailyCents > req.Assistant.DailyCapCents:
		decision.Effect = EffectRequireApproval
		decision.Reason = ReasonDailyCapExceeded
	case req.Tenant.MonthlyCapCents > 0 && decision.ProjectedMonthlyCents > req.Tenant.MonthlyCapCents:
		decision.Effect = EffectRequireApproval
		decision.Reason = ReasonMonthlyCapExceeded
	case req.RiskLevel >= g.threshold:
		decision.Effect = EffectRequireApproval
		decision.Reason = ReasonRiskReview
	default:
		decision.Effect = EffectAllow
	}

	g.logDecision(req, decision)
	return decision, nil
}

func (g *Governor) logDecision(req AuthorizeRequest, decision Decision) {
	g.logger.Info("authorization decision",
		zap.String("tenant_id", req.Tenant.ID.String()),
		zap.String("assistant_id", req.Assistant.ID.String()),
		zap.Int("risk_level", req.RiskLevel),
		zap.Int64("estimated_cost_cents", int64(req.EstimatedCostCents)),
		zap.String("effect", string(decision.Effect)),
		zap.String("reason", decision.Reason))
}
