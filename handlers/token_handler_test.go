package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHandler_HandleIssueToken(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/auth/tokens", IssueTokenRequest{
		TenantID: f.tenant.ID,
		UserID:   f.user.ID,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp IssueTokenResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "Bearer", resp.TokenType)
	require.NotEmpty(t, resp.Token)

	claims, err := f.tokens.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, claims.UserID)
	assert.Equal(t, f.tenant.ID, claims.TenantID)
	assert.Equal(t, string(f.user.Role), claims.Role)
}

func TestTokenHandler_HandleIssueToken_UnknownUser(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/auth/tokens", IssueTokenRequest{
		TenantID: f.tenant.ID,
		UserID:   uuid.New(),
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenHandler_HandleIssueToken_MissingFields(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/auth/tokens", IssueTokenRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
