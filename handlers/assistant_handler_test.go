package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
)

func TestAssistantHandler_HandleCreate(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/assistants", CreateAssistantRequest{
		Name:          "Legal Bot",
		Slug:          "legal-bot",
		Type:          "contract_review",
		RiskTier:      3,
		DailyCapCents: 2000,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Assistant
	decodeData(t, w, &created)
	assert.Equal(t, "Legal Bot", created.Name)
	assert.Equal(t, 3, created.RiskTier)
	assert.Equal(t, f.tenant.ID, created.TenantID)
}

func TestAssistantHandler_HandleCreate_InvalidRiskTier(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/assistants", CreateAssistantRequest{
		Name:          "Legal Bot",
		Slug:          "legal-bot",
		Type:          "contract_review",
		RiskTier:      7,
		DailyCapCents: 2000,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistantHandler_HandleList(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/assistants", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var assistants []models.Assistant
	decodeData(t, w, &assistants)
	require.Len(t, assistants, 1)
	assert.Equal(t, f.assistant.ID, assistants[0].ID)
}

func TestAssistantHandler_HandleGet(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/assistants/"+f.assistant.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.Assistant
	decodeData(t, w, &fetched)
	assert.Equal(t, f.assistant.ID, fetched.ID)
	assert.Equal(t, "finance-bot", fetched.Slug)
}

func TestAssistantHandler_HandleGet_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/assistants/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistantHandler_HandleUpdate(t *testing.T) {
	f := newHandlerFixture(t)

	status := "inactive"
	cap := int64(9000)
	w := f.do(t, http.MethodPatch, "/assistants/"+f.assistant.ID.String(), UpdateAssistantRequest{
		Status:        &status,
		DailyCapCents: &cap,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Assistant
	decodeData(t, w, &updated)
	assert.Equal(t, models.AssistantStatusInactive, updated.Status)
	assert.Equal(t, models.Cents(9000), updated.DailyCapCents)
}

func TestAssistantHandler_HandleUpdate_InvalidStatus(t *testing.T) {
	f := newHandlerFixture(t)

	status := "hibernating"
	w := f.do(t, http.MethodPatch, "/assistants/"+f.assistant.ID.String(), UpdateAssistantRequest{
		Status: &status,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistantHandler_HandleDelete(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodDelete, "/assistants/"+f.assistant.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/assistants/"+f.assistant.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
