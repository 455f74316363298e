package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/ledger"
)

func TestCostHandler_HandlePostCost(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/costs", PostCostRequest{
		AssistantID: f.assistant.ID,
		Provider:    "anthropic",
		AmountCents: 420,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var txn models.CostTransaction
	decodeData(t, w, &txn)
	assert.Equal(t, models.Cents(420), txn.AmountCents)
	assert.Equal(t, "anthropic", txn.Provider)
	assert.Equal(t, f.tenant.ID, txn.TenantID)
}

func TestCostHandler_HandlePostCost_ZeroAmount(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/costs", PostCostRequest{
		AssistantID: f.assistant.ID,
		Provider:    "anthropic",
		AmountCents: 0,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCostHandler_HandlePostCost_UnknownAssistant(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/costs", PostCostRequest{
		AssistantID: uuid.New(),
		Provider:    "anthropic",
		AmountCents: 100,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCostHandler_HandlePostCost_IdempotentRetry(t *testing.T) {
	f := newHandlerFixture(t)

	key := "report-7f3a"
	first := f.do(t, http.MethodPost, "/costs", PostCostRequest{
		AssistantID:    f.assistant.ID,
		Provider:       "anthropic",
		AmountCents:    100,
		IdempotencyKey: &key,
	})
	require.Equal(t, http.StatusCreated, first.Code)

	retry := f.do(t, http.MethodPost, "/costs", PostCostRequest{
		AssistantID:    f.assistant.ID,
		Provider:       "anthropic",
		AmountCents:    100,
		IdempotencyKey: &key,
	})
	require.Equal(t, http.StatusCreated, retry.Code)

	var a, b models.CostTransaction
	decodeData(t, first, &a)
	decodeData(t, retry, &b)
	assert.Equal(t, a.ID, b.ID)

	w := f.do(t, http.MethodGet, "/costs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []models.CostTransaction
	decodeData(t, w, &txns)
	assert.Len(t, txns, 1)
}

func TestCostHandler_HandleGet(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/costs", PostCostRequest{
		AssistantID: f.assistant.ID,
		Provider:    "openai",
		AmountCents: 55,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.CostTransaction
	decodeData(t, w, &created)

	w = f.do(t, http.MethodGet, "/costs/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.CostTransaction
	decodeData(t, w, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestCostHandler_HandleSummary(t *testing.T) {
	f := newHandlerFixture(t)

	for _, post := range []PostCostRequest{
		{AssistantID: f.assistant.ID, Provider: "anthropic", AmountCents: 300},
		{AssistantID: f.assistant.ID, Provider: "anthropic", AmountCents: 200},
		{AssistantID: f.assistant.ID, Provider: "openai", AmountCents: 150},
	} {
		w := f.do(t, http.MethodPost, "/costs", post)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, http.MethodGet, "/costs/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary ledger.SpendSummary
	decodeData(t, w, &summary)
	assert.Equal(t, models.Cents(650), summary.DailySpendCents)
	assert.Equal(t, models.Cents(650), summary.MonthlySpendCents)
	assert.Equal(t, models.Cents(100000), summary.MonthlyCapCents)
	assert.Equal(t, models.Cents(500), summary.ByProvider["anthropic"])
	assert.Equal(t, models.Cents(150), summary.ByProvider["openai"])
}
