package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/app"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)
	actionHandler := handlers.NewActionHandler(deps.Actions, deps.Logger)
	workItemHandler := handlers.NewWorkItemHandler(deps.Actions, deps.Logger)
	approvalHandler := handlers.NewApprovalHandler(deps.Approvals, deps.Logger)
	assistantHandler := handlers.NewAssistantHandler(deps.Assistants, deps.Logger)
	tenantHandler := handlers.NewTenantHandler(deps.Tenants, deps.Logger)
	costHandler := handlers.NewCostHandler(deps.Ledger, deps.Tenants, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.Recorder, deps.Logger)
	tokenHandler := handlers.NewTokenHandler(deps.Tenants, deps.Tokens, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.ExtractTenant)

		// Action lifecycle
		r.Post("/actions/authorize", actionHandler.HandleAuthorize)

		// Work items
		r.Route("/work-items", func(r chi.Router) {
			r.Post("/", workItemHandler.HandleCreate)
			r.Get("/", workItemHandler.HandleList)
			r.Get("/{id}", workItemHandler.HandleGet)
			r.Post("/{id}/complete", actionHandler.HandleComplete)
		})

		// Approvals
		r.Route("/approvals", func(r chi.Router) {
			r.Get("/", approvalHandler.HandleList)
			r.Get("/{id}", approvalHandler.HandleGet)
			r.With(deps.AuthMiddleware.RequireRole("admin", "super_admin")).
				Post("/{id}/approve", approvalHandler.HandleApprove)
			r.With(deps.AuthMiddleware.RequireRole("admin", "super_admin")).
				Post("/{id}/reject", approvalHandler.HandleReject)
		})

		// Assistant registry
		r.Route("/assistants", func(r chi.Router) {
			r.Get("/", assistantHandler.HandleList)
			r.Get("/{id}", assistantHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireRole("admin", "super_admin"))
				r.Post("/", assistantHandler.HandleCreate)
				r.Patch("/{id}", assistantHandler.HandleUpdate)
				r.Delete("/{id}", assistantHandler.HandleDelete)
			})
		})

		// Tenant management (super admin only)
		r.Route("/tenants", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole("super_admin"))
			r.Post("/", tenantHandler.HandleCreate)
			r.Get("/", tenantHandler.HandleList)
			r.Get("/{id}", tenantHandler.HandleGet)
			r.Patch("/{id}", tenantHandler.HandleUpdate)
			r.Get("/{id}/children", tenantHandler.HandleListChildren)
			r.Post("/{id}/users", tenantHandler.HandleCreateUser)
			r.Get("/{id}/users/{userID}", tenantHandler.HandleGetUser)
		})

		// Cost ledger
		r.Route("/costs", func(r chi.Router) {
			r.Post("/", costHandler.HandlePostCost)
			r.Get("/", costHandler.HandleList)
			r.Get("/summary", costHandler.HandleSummary)
			r.Get("/{id}", costHandler.HandleGet)
		})

		// Audit trail (admin only)
		r.Route("/audit-logs", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole("admin", "super_admin"))
			r.Get("/", auditHandler.HandleList)
			r.Get("/{id}", auditHandler.HandleGet)
		})

		// Token minting for tenant users and assistant runtimes
		r.With(deps.AuthMiddleware.RequireRole("super_admin")).
			Post("/auth/tokens", tokenHandler.HandleIssueToken)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
