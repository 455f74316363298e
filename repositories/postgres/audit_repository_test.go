package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
)

func auditLogRows(entries ...*models.AuditLogEntry) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "actor_type", "actor_id", "action",
		"entity_type", "entity_id", "details", "timestamp",
	})
	for _, e := range entries {
		rows.AddRow(e.ID, e.TenantID, e.ActorType, e.ActorID, e.Action,
			e.EntityType, e.EntityID, []byte(e.Details), e.Timestamp)
	}
	return rows
}

func TestAuditInsert_ServerAssignsTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	entry := models.NewAuditLogEntry(uuid.New(), models.ActorTypeUser, uuid.New(),
		models.AuditActionCostPosted, "cost_transactions", uuid.New())
	committed := time.Now().Round(time.Microsecond)

	mock.ExpectQuery(`(?s)INSERT INTO audit_logs.+RETURNING timestamp`).
		WithArgs(entry.ID, entry.TenantID, entry.ActorType, entry.ActorID,
			entry.Action, entry.EntityType, entry.EntityID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp"}).AddRow(committed))

	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.Equal(t, committed, entry.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditQuery_NoFiltersAppliesDefaultLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	tenantID := uuid.New()
	entry := models.NewAuditLogEntry(tenantID, models.ActorTypeSystem, uuid.Nil,
		models.AuditActionApprovalExpired, "approvals", uuid.New())

	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE tenant_id = \$1 ORDER BY timestamp DESC LIMIT \$2`).
		WithArgs(tenantID, 100).
		WillReturnRows(auditLogRows(entry))

	entries, err := repo.Query(context.Background(), tenantID, repositories.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionApprovalExpired, entries[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditQuery_FiltersBuildPositionalParams(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	tenantID := uuid.New()
	actorID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE tenant_id = \$1 AND action = \$2 AND actor_id = \$3 AND entity_type = \$4 ORDER BY timestamp DESC LIMIT \$5 OFFSET \$6`).
		WithArgs(tenantID, models.AuditActionApprovalGranted, actorID, "approvals", 25, 50).
		WillReturnRows(auditLogRows())

	entries, err := repo.Query(context.Background(), tenantID, repositories.AuditFilter{
		Action:     models.AuditActionApprovalGranted,
		ActorID:    &actorID,
		EntityType: "approvals",
		Limit:      25,
		Offset:     50,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE tenant_id`).
		WillReturnRows(auditLogRows())

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
