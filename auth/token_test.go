package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
)

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(Config{
		Secret: "test-secret",
		Issuer: "awgp",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func testUser() *models.User {
	return models.NewUser("admin@example.com", "Admin", uuid.New(), models.RoleAdmin)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService(Config{Issuer: "awgp"})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	user := testUser()

	token, err := svc.Issue(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService(t)
	user := testUser()

	token, err := svc.Issue(user)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService(t)

	other, err := NewTokenService(Config{Secret: "other-secret", Issuer: "awgp"})
	require.NoError(t, err)

	token, err := other.Issue(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	svc := newTestService(t)

	other, err := NewTokenService(Config{Secret: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := other.Issue(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestValidateToken_RejectsUnsignedToken(t *testing.T) {
	svc := newTestService(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "awgp",
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: uuid.New().String(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_NonUUIDTenant(t *testing.T) {
	svc := newTestService(t)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "awgp",
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: "not-a-uuid",
	})
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id")
}
