package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/app"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/config"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories/postgres"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/routes"
)

// rejectAllValidator rejects all tokens (unauthenticated requests get 401)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, assert.AnError
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"http://localhost:5173"},
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}

func TestRouteSetup(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Route wiring without a live database: nil pool, reject-all auth
	deps := &app.Dependencies{
		Config:         testConfig(),
		DB:             &postgres.DB{},
		Logger:         logger,
		AuthMiddleware: middleware.NewAuthMiddleware(&rejectAllValidator{}, logger),
	}

	handler := routes.SetupRoutes(deps)
	require.NotNil(t, handler)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	t.Run("health endpoint is public", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Data.Status)
	})

	t.Run("api routes require authentication", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/work-items")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown route returns 404", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v2/nothing")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
