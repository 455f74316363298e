package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/auth"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/config"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/middleware"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories/postgres"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/action"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/approval"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/assistant"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/governor"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/ledger"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/realtime"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/tenant"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Services
	Recorder   *audit.Recorder
	Ledger     *ledger.Service
	Governor   *governor.Governor
	Approvals  *approval.Engine
	Tenants    *tenant.Service
	Assistants *assistant.Service
	Actions    *action.Service

	// Auth
	Tokens         *auth.TokenService
	AuthMiddleware *middleware.AuthMiddleware

	// Realtime change feed (nil when disabled)
	Realtime *realtime.Listener

	spendCache *ledger.SpendCache
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initServices(cfg)

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initRealtime(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection pool and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.DB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.NewTransactionManager()
	d.Logger.Info("repositories initialized")
}

// initServices wires the governance service graph: audit recorder first since
// every other service writes through it.
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Recorder = audit.NewRecorder(d.Repos.AuditLogs, d.Logger)

	d.spendCache = ledger.NewSpendCache(cfg.Governance.SpendCacheSize, cfg.Governance.SpendCacheTTL)
	d.Ledger = ledger.NewService(d.Repos.Costs, d.Repos.Assistants, d.TxManager,
		d.Recorder, d.spendCache, d.Logger)

	d.Governor = governor.NewGovernor(d.Ledger, cfg.Governance.AutoApproveThreshold, d.Logger)
	d.Approvals = approval.NewEngine(d.Repos.Approvals, d.Repos.WorkItems, d.TxManager,
		d.Recorder, d.Logger)

	d.Tenants = tenant.NewService(d.Repos.Tenants, d.Repos.Users, d.Repos.Assistants,
		d.TxManager, d.Recorder, d.Logger)
	d.Assistants = assistant.NewService(d.Repos.Assistants, d.Tenants, d.TxManager,
		d.Recorder, d.Logger)
	d.Actions = action.NewService(d.Repos.WorkItems, d.Repos.Assistants, d.Repos.Tenants,
		d.TxManager, d.Governor, d.Approvals, d.Ledger, d.Recorder, d.Logger)

	d.Logger.Info("services initialized",
		zap.Int("auto_approve_threshold", cfg.Governance.AutoApproveThreshold))
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, protected routes will reject all requests")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return nil
	}

	tokens, err := auth.NewTokenService(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	d.Tokens = tokens
	d.AuthMiddleware = middleware.NewAuthMiddleware(&tokenValidatorAdapter{tokens: tokens}, d.Logger)
	d.Logger.Info("token service initialized", zap.String("issuer", cfg.Auth.Issuer))
	return nil
}

// initRealtime wires the LISTEN/NOTIFY feed into the spend cache: cost rows
// invalidate the affected tenant, a reconnect drops everything.
func (d *Dependencies) initRealtime(cfg *config.Config) {
	if !cfg.Realtime.Enabled {
		d.Logger.Info("realtime change feed disabled")
		return
	}

	listener := realtime.NewListener(cfg.Database.DSN(), cfg.Realtime.Channel, d.Logger)
	listener.Subscribe(models.CostTransaction{}.TableName(), func(event realtime.ChangeEvent) {
		d.Ledger.InvalidateTenant(event.TenantID)
	})
	listener.OnReconnect(func() {
		d.spendCache.Clear()
	})

	d.Realtime = listener
	d.Logger.Info("realtime listener configured", zap.String("channel", cfg.Realtime.Channel))
}

// tokenValidatorAdapter adapts auth.TokenService to middleware.TokenValidator
type tokenValidatorAdapter struct {
	tokens *auth.TokenService
}

func (a *tokenValidatorAdapter) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	parsed, err := a.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		Sub:      parsed.UserID.String(),
		Email:    parsed.Email,
		TenantID: parsed.TenantID.String(),
		Role:     parsed.Role,
		Iat:      parsed.IssuedAt.Unix(),
		Exp:      parsed.ExpiresAt.Unix(),
	}, nil
}

// rejectAllValidator rejects all tokens (used when no JWT secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
