package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/auth"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories/memory"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/action"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/approval"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/assistant"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/governor"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/ledger"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/tenant"
)

// handlerFixture wires the full service graph over the in-memory store and
// mounts every handler on a router with tenant/user context injected, the way
// the auth middleware does in production.
type handlerFixture struct {
	store     *memory.Store
	router    http.Handler
	tenants   *tenant.Service
	actions   *action.Service
	engine    *approval.Engine
	ledger    *ledger.Service
	tokens    *auth.TokenService
	tenant    *models.Tenant
	assistant *models.Assistant
	user      *models.User
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	logger := zap.NewNop()

	store := memory.NewStore()
	repos := store.Repositories()
	txm := store.TransactionManager()
	recorder := audit.NewRecorder(repos.AuditLogs, logger)

	seedTenant := models.NewTenant("Acme", "acme", models.TenantTypeHolding).WithMonthlyCap(100000)
	seedAssistant := models.NewAssistant(seedTenant.ID, "Finance Bot", "finance-bot", "company_finance", 2, 5000)
	seedUser := models.NewUser("admin@acme.test", "Admin", seedTenant.ID, models.RoleAdmin)
	store.AddTenant(seedTenant)
	store.AddAssistant(seedAssistant)
	store.AddUser(seedUser)

	ledgerSvc := ledger.NewService(repos.Costs, repos.Assistants, txm, recorder,
		ledger.NewSpendCache(128, time.Minute), logger)
	gov := governor.NewGovernor(ledgerSvc, 4, logger)
	engine := approval.NewEngine(repos.Approvals, repos.WorkItems, txm, recorder, logger)
	tenantSvc := tenant.NewService(repos.Tenants, repos.Users, repos.Assistants, txm, recorder, logger)
	assistantSvc := assistant.NewService(repos.Assistants, tenantSvc, txm, recorder, logger)
	actionSvc := action.NewService(repos.WorkItems, repos.Assistants, repos.Tenants, txm,
		gov, engine, ledgerSvc, recorder, logger)

	tokens, err := auth.NewTokenService(auth.Config{Secret: "test-secret", Issuer: "awgp"})
	require.NoError(t, err)

	f := &handlerFixture{
		store:     store,
		tenants:   tenantSvc,
		actions:   actionSvc,
		engine:    engine,
		ledger:    ledgerSvc,
		tokens:    tokens,
		tenant:    seedTenant,
		assistant: seedAssistant,
		user:      seedUser,
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithTenantID(req.Context(), f.tenant.ID)
			ctx = middleware.WithUserID(ctx, &f.user.ID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	actionHandler := NewActionHandler(actionSvc, logger)
	workItemHandler := NewWorkItemHandler(actionSvc, logger)
	approvalHandler := NewApprovalHandler(engine, logger)
	assistantHandler := NewAssistantHandler(assistantSvc, logger)
	tenantHandler := NewTenantHandler(tenantSvc, logger)
	costHandler := NewCostHandler(ledgerSvc, tenantSvc, logger)
	auditHandler := NewAuditHandler(recorder, logger)
	tokenHandler := NewTokenHandler(tenantSvc, tokens, logger)

	r.Post("/actions/authorize", actionHandler.HandleAuthorize)
	r.Post("/work-items", workItemHandler.HandleCreate)
	r.Get("/work-items", workItemHandler.HandleList)
	r.Get("/work-items/{id}", workItemHandler.HandleGet)
	r.Post("/work-items/{id}/complete", actionHandler.HandleComplete)
	r.Get("/approvals", approvalHandler.HandleList)
	r.Get("/approvals/{id}", approvalHandler.HandleGet)
	r.Post("/approvals/{id}/approve", approvalHandler.HandleApprove)
	r.Post("/approvals/{id}/reject", approvalHandler.HandleReject)
	r.Post("/assistants", assistantHandler.HandleCreate)
	r.Get("/assistants", assistantHandler.HandleList)
	r.Get("/assistants/{id}", assistantHandler.HandleGet)
	r.Patch("/assistants/{id}", assistantHandler.HandleUpdate)
	r.Delete("/assistants/{id}", assistantHandler.HandleDelete)
	r.Post("/tenants", tenantHandler.HandleCreate)
	r.Get("/tenants", tenantHandler.HandleList)
	r.Get("/tenants/{id}", tenantHandler.HandleGet)
	r.Patch("/tenants/{id}", tenantHandler.HandleUpdate)
	r.Get("/tenants/{id}/children", tenantHandler.HandleListChildren)
	r.Post("/tenants/{id}/users", tenantHandler.HandleCreateUser)
	r.Get("/tenants/{id}/users/{userID}", tenantHandler.HandleGetUser)
	r.Post("/costs", costHandler.HandlePostCost)
	r.Get("/costs", costHandler.HandleList)
	r.Get("/costs/summary", costHandler.HandleSummary)
	r.Get("/costs/{id}", costHandler.HandleGet)
	r.Get("/audit-logs", auditHandler.HandleList)
	r.Get("/audit-logs/{id}", auditHandler.HandleGet)
	r.Post("/auth/tokens", tokenHandler.HandleIssueToken)

	f.router = r
	return f
}

// do performs a request against the fixture router
func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the "data" envelope of a success response
func decodeData(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}
