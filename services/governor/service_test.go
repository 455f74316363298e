package governor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
)

// stubLedger serves fixed aggregates so decisions are a pure function of
// the inputs under test
type stubLedger struct {
	daily   models.Cents
	monthly models.Cents
}

func (s *stubLedger) DailySpend(ctx context.Context, tenant *models.Tenant, assistantID uuid.UUID) (models.Cents, error) {
	return s.daily, nil
}

func (s *stubLedger) MonthlySpend(ctx context.Context, tenant *models.Tenant) (models.Cents, error) {
	return s.monthly, nil
}

func newTestGovernor(daily, monthly models.Cents) *Governor {
	logger, _ := zap.NewDevelopment()
	return NewGovernor(&stubLedger{daily: daily, monthly: monthly}, 4, logger)
}

func testTenant(monthlyCap models.Cents) *models.Tenant {
	return models.NewTenant("Acme Holding", "acme", models.TenantTypeHolding).WithMonthlyCap(monthlyCap)
}

func testAssistant(tenant *models.Tenant, riskTier int, dailyCap models.Cents) *models.Assistant {
	return models.NewAssistant(tenant.ID, "Finance Bot", "finance-bot", "company_finance", riskTier, dailyCap)
}

func TestAuthorize_DailyCapExceeded(t *testing.T) {
	// $45 spent today, $50 daily cap, $10 estimate: projection breaches the cap
	gov := newTestGovernor(4500, 0)
	tenant := testTenant(0)
	asst := testAssistant(tenant, 1, 5000)

	decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: 1000,
		RiskLevel:          1,
	})
	require.NoError(t, err)

	assert.Equal(t, EffectRequireApproval, decision.Effect)
	assert.Equal(t, ReasonDailyCapExceeded, decision.Reason)
	assert.Equal(t, models.Cents(5500), decision.ProjectedDailyCents)
}

func TestAuthorize_MonthlyCapExceeded(t *testing.T) {
	gov := newTestGovernor(0, 99500)
	tenant := testTenant(100000)
	asst := testAssistant(tenant, 1, 0)

	decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: 1000,
		RiskLevel:          1,
	})
	require.NoError(t, err)

	assert.Equal(t, EffectRequireApproval, decision.Effect)
	assert.Equal(t, ReasonMonthlyCapExceeded, decision.Reason)
}

func TestAuthorize_RiskThresholdAtZeroSpend(t *testing.T) {
	// Risk at or above the threshold requires review even with no spend at all
	gov := newTestGovernor(0, 0)
	tenant := testTenant(100000)

	for _, risk := range []int{4, 5} {
		asst := testAssistant(tenant, risk, 5000)
		decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
			Tenant:             tenant,
			Assistant:          asst,
			EstimatedCostCents: 0,
			RiskLevel:          risk,
		})
		require.NoError(t, err)
		assert.Equal(t, EffectRequireApproval, decision.Effect)
		assert.Equal(t, ReasonRiskReview, decision.Reason)
	}
}

func TestAuthorize_CapCheckedBeforeRisk(t *testing.T) {
	// When both gates fire, the reason names the numeric cause
	gov := newTestGovernor(4500, 0)
	tenant := testTenant(0)
	asst := testAssistant(tenant, 5, 5000)

	decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: 1000,
		RiskLevel:          5,
	})
	require.NoError(t, err)

	assert.Equal(t, EffectRequireApproval, decision.Effect)
	assert.Equal(t, ReasonDailyCapExceeded, decision.Reason)
}

func TestAuthorize_Allow(t *testing.T) {
	gov := newTestGovernor(1000, 5000)
	tenant := testTenant(100000)
	asst := testAssistant(tenant, 2, 5000)

	decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: 500,
		RiskLevel:          2,
	})
	require.NoError(t, err)

	assert.Equal(t, EffectAllow, decision.Effect)
	assert.True(t, decision.Allowed())
	assert.Empty(t, decision.Reason)
}

func TestAuthorize_ZeroCapsAreUnlimited(t *testing.T) {
	gov := newTestGovernor(1_000_000, 10_000_000)
	tenant := testTenant(0)
	asst := testAssistant(tenant, 0, 0)

	decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: 999999,
		RiskLevel:          0,
	})
	require.NoError(t, err)
	assert.Equal(t, EffectAllow, decision.Effect)
}

func TestAuthorize_DenyInactiveAssistant(t *testing.T) {
	gov := newTestGovernor(0, 0)
	tenant := testTenant(100000)

	for _, status := range []models.AssistantStatus{models.AssistantStatusInactive, models.AssistantStatusError} {
		asst := testAssistant(tenant, 1, 5000)
		asst.Status = status

		decision, err := gov.Authorize(context.Background(), AuthorizeRequest{
			Tenant:             tenant,
			Assistant:          asst,
			EstimatedCostCents: 100,
			RiskLevel:          1,
		})
		require.NoError(t, err)
		assert.Equal(t, EffectDeny, decision.Effect)
		assert.Equal(t, ReasonAssistantInactive, decision.Reason)
	}
}

func TestAuthorize_Deterministic(t *testing.T) {
	// Same ledger state and request always produce the same decision
	gov := newTestGovernor(4500, 20000)
	tenant := testTenant(100000)
	asst := testAssistant(tenant, 3, 5000)
	req := AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: 400,
		RiskLevel:          3,
	}

	first, err := gov.Authorize(context.Background(), req)
	require.NoError(t, err)
	second, err := gov.Authorize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAuthorize_InvalidInputs(t *testing.T) {
	gov := newTestGovernor(0, 0)
	tenant := testTenant(0)
	asst := testAssistant(tenant, 1, 0)

	_, err := gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:    tenant,
		Assistant: asst,
		RiskLevel: 6,
	})
	assert.True(t, services.IsValidationError(err))

	_, err = gov.Authorize(context.Background(), AuthorizeRequest{
		Tenant:             tenant,
		Assistant:          asst,
		EstimatedCostCents: -100,
		RiskLevel:          1,
	})
	assert.True(t, services.IsValidationError(err))
}
