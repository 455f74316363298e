package postgres

import (
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/config"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Tenants:    NewTenantRepository(f.db, f.logger),
		Users:      NewUserRepository(f.db, f.logger),
		Assistants: NewAssistantRepository(f.db, f.logger),
		WorkItems:  NewWorkItemRepository(f.db, f.logger),
		Approvals:  NewApprovalRepository(f.db, f.logger),
		Costs:      NewCostRepository(f.db, f.logger),
		AuditLogs:  NewAuditRepository(f.db, f.logger),
	}
}

// NewTransactionManager creates a transaction manager bound to the factory's pool
func (f *RepositoryFactory) NewTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// DB exposes the underlying connection pool (health checks, schema init)
func (f *RepositoryFactory) DB() *DB {
	return f.db
}

// Close closes the underlying connection pool
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
