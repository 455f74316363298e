package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/auth"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/config"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories/postgres"
)

func TestNewDependencies(t *testing.T) {
	t.Run("successful initialization with all components", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		logger := zaptest.NewLogger(t)

		// Skip if database not available
		if !isDatabaseAvailable(t, cfg) {
			t.Skip("database not available")
		}

		deps, err := NewDependencies(ctx, cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, deps)

		// Infrastructure
		assert.NotNil(t, deps.Config)
		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Logger)

		// Repositories
		require.NotNil(t, deps.Repos)
		assert.NotNil(t, deps.Repos.Tenants)
		assert.NotNil(t, deps.Repos.Users)
		assert.NotNil(t, deps.Repos.Assistants)
		assert.NotNil(t, deps.Repos.WorkItems)
		assert.NotNil(t, deps.Repos.Approvals)
		assert.NotNil(t, deps.Repos.Costs)
		assert.NotNil(t, deps.Repos.AuditLogs)
		assert.NotNil(t, deps.TxManager)

		// Services
		assert.NotNil(t, deps.Recorder)
		assert.NotNil(t, deps.Ledger)
		assert.NotNil(t, deps.Governor)
		assert.NotNil(t, deps.Approvals)
		assert.NotNil(t, deps.Tenants)
		assert.NotNil(t, deps.Assistants)
		assert.NotNil(t, deps.Actions)

		// Auth and realtime
		assert.NotNil(t, deps.Tokens)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.Realtime)

		err = deps.Close(ctx)
		assert.NoError(t, err)
	})

	t.Run("database connection failure", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Database.Host = "invalid-host-that-does-not-exist"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

func TestTokenValidatorAdapter(t *testing.T) {
	tokens, err := auth.NewTokenService(auth.Config{
		Secret: "test-secret",
		Issuer: "awgp",
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	user := models.NewUser("admin@example.com", "Admin", uuid.New(), models.RoleAdmin)
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	adapter := &tokenValidatorAdapter{tokens: tokens}
	claims, err := adapter.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.Sub)
	assert.Equal(t, user.TenantID.String(), claims.TenantID)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Greater(t, claims.Exp, claims.Iat)
}

func TestTokenValidatorAdapter_InvalidToken(t *testing.T) {
	tokens, err := auth.NewTokenService(auth.Config{Secret: "test-secret", Issuer: "awgp"})
	require.NoError(t, err)

	adapter := &tokenValidatorAdapter{tokens: tokens}
	claims, err := adapter.ValidateToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestRejectAllValidator(t *testing.T) {
	validator := &rejectAllValidator{}

	claims, err := validator.ValidateToken(context.Background(), "any-token")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "dev",
			Password:        "governance_password",
			Database:        "governance_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			Issuer:    "awgp",
			TokenTTL:  time.Hour,
		},
		Governance: config.GovernanceConfig{
			AutoApproveThreshold: 4,
			SweepInterval:        time.Minute,
			SweepBatchSize:       100,
			SpendCacheSize:       128,
			SpendCacheTTL:        30 * time.Second,
		},
		Realtime: config.RealtimeConfig{
			Enabled: true,
			Channel: "awgp_changes",
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

func isDatabaseAvailable(t *testing.T, cfg *config.Config) bool {
	t.Helper()
	logger := zap.NewNop()
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return false
	}
	defer factory.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return factory.DB().PingContext(ctx) == nil
}
