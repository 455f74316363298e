package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/config"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema.
// cost_transactions and audit_logs are append-only: created_at / timestamp
// default to the server clock so ordering per partition key is assigned at
// commit time, and neither table has an update path.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Tenants table (tree: holding -> subsidiaries)
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) NOT NULL UNIQUE,
			type VARCHAR(50) NOT NULL,
			parent_id UUID REFERENCES tenants(id) ON DELETE SET NULL,
			monthly_cap_cents BIGINT NOT NULL DEFAULT 0,
			max_assistants INTEGER NOT NULL DEFAULT 0,
			max_users INTEGER NOT NULL DEFAULT 0,
			timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- User profiles table
		CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			role VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(email, tenant_id)
		);

		-- Assistants table
		CREATE TABLE IF NOT EXISTS assistants (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) NOT NULL,
			type VARCHAR(100) NOT NULL,
			risk_tier INTEGER NOT NULL CHECK (risk_tier BETWEEN 0 AND 5),
			daily_cap_cents BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(tenant_id, slug)
		);

		-- Work items table
		CREATE TABLE IF NOT EXISTS work_items (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			assistant_id UUID NOT NULL REFERENCES assistants(id) ON DELETE CASCADE,
			title VARCHAR(500) NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			risk_level INTEGER NOT NULL CHECK (risk_level BETWEEN 0 AND 5),
			status VARCHAR(50) NOT NULL,
			result TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMPTZ
		);

		-- Approvals table
		CREATE TABLE IF NOT EXISTS approvals (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			work_item_id UUID NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
			risk_level INTEGER NOT NULL CHECK (risk_level BETWEEN 0 AND 5),
			status VARCHAR(50) NOT NULL,
			requested_by UUID NOT NULL,
			approved_by UUID,
			rejected_reason TEXT,
			context_summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMPTZ NOT NULL,
			resolved_at TIMESTAMPTZ
		);
		-- at most one open approval per work item
		CREATE UNIQUE INDEX IF NOT EXISTS idx_approvals_pending_work_item
			ON approvals(work_item_id) WHERE status = 'pending';

		-- Cost transactions table (append-only)
		CREATE TABLE IF NOT EXISTS cost_transactions (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			assistant_id UUID NOT NULL REFERENCES assistants(id) ON DELETE CASCADE,
			provider VARCHAR(100) NOT NULL,
			amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
			idempotency_key VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cost_transactions_idempotency
			ON cost_transactions(assistant_id, idempotency_key)
			WHERE idempotency_key IS NOT NULL;

		-- Audit logs table (append-only)
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			actor_type VARCHAR(50) NOT NULL,
			actor_id UUID NOT NULL,
			action VARCHAR(100) NOT NULL,
			entity_type VARCHAR(100) NOT NULL,
			entity_id UUID NOT NULL,
			details JSONB,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Change notification trigger for the realtime listener
		CREATE OR REPLACE FUNCTION notify_row_change() RETURNS trigger AS $$
		DECLARE
			row RECORD;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				row := OLD;
			ELSE
				row := NEW;
			END IF;
			PERFORM pg_notify('awgp_changes', json_build_object(
				'table', TG_TABLE_NAME,
				'op', TG_OP,
				'tenant_id', row.tenant_id,
				'entity_id', row.id
			)::text);
			RETURN row;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS trg_cost_transactions_notify ON cost_transactions;
		CREATE TRIGGER trg_cost_transactions_notify
			AFTER INSERT ON cost_transactions
			FOR EACH ROW EXECUTE FUNCTION notify_row_change();

		DROP TRIGGER IF EXISTS trg_approvals_notify ON approvals;
		CREATE TRIGGER trg_approvals_notify
			AFTER INSERT OR UPDATE ON approvals
			FOR EACH ROW EXECUTE FUNCTION notify_row_change();

		DROP TRIGGER IF EXISTS trg_work_items_notify ON work_items;
		CREATE TRIGGER trg_work_items_notify
			AFTER INSERT OR UPDATE ON work_items
			FOR EACH ROW EXECUTE FUNCTION notify_row_change();

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_tenants_parent_id ON tenants(parent_id);
		CREATE INDEX IF NOT EXISTS idx_user_profiles_tenant_id ON user_profiles(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_assistants_tenant_id ON assistants(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_work_items_tenant_id ON work_items(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_work_items_assistant_id ON work_items(assistant_id);
		CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items(status);

		CREATE INDEX IF NOT EXISTS idx_approvals_tenant_id ON approvals(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status);
		CREATE INDEX IF NOT EXISTS idx_approvals_expires_at ON approvals(expires_at);

		CREATE INDEX IF NOT EXISTS idx_cost_transactions_tenant_id ON cost_transactions(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_cost_transactions_assistant_id ON cost_transactions(assistant_id);
		CREATE INDEX IF NOT EXISTS idx_cost_transactions_created_at ON cost_transactions(created_at);

		CREATE INDEX IF NOT EXISTS idx_audit_logs_tenant_id ON audit_logs(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
