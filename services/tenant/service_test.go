package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories/memory"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
)

func newTenantService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	store := memory.NewStore()
	repos := store.Repositories()
	recorder := audit.NewRecorder(repos.AuditLogs, logger)

	svc := NewService(repos.Tenants, repos.Users, repos.Assistants,
		store.TransactionManager(), recorder, logger)
	return svc, store
}

func TestCreate_HoldingWithSubsidiary(t *testing.T) {
	svc, store := newTenantService(t)
	actor := uuid.New()

	holding, err := svc.Create(context.Background(), CreateTenantRequest{
		Name:            "Acme Holding",
		Slug:            "acme",
		Type:            models.TenantTypeHolding,
		MonthlyCapCents: 500000,
		Timezone:        "America/New_York",
		ActorID:         actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", holding.Timezone)

	sub, err := svc.Create(context.Background(), CreateTenantRequest{
		Name:            "Acme Legal",
		Slug:            "acme-legal",
		Type:            models.TenantTypeSubsidiary,
		ParentID:        &holding.ID,
		MonthlyCapCents: 100000,
		ActorID:         actor,
	})
	require.NoError(t, err)

	children, err := svc.ListChildren(context.Background(), holding.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, sub.ID, children[0].ID)

	// each create leaves one audit entry
	entries := store.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionTenantCreated, entries[0].Action)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTenantService(t)
	ctx := context.Background()
	parent := uuid.New()

	cases := []struct {
		name string
		req  CreateTenantRequest
	}{
		{"empty name", CreateTenantRequest{Slug: "x", Type: models.TenantTypeHolding}},
		{"bad slug", CreateTenantRequest{Name: "X", Slug: "Bad Slug!", Type: models.TenantTypeHolding}},
		{"bad type", CreateTenantRequest{Name: "X", Slug: "x", Type: "franchise"}},
		{"bad timezone", CreateTenantRequest{Name: "X", Slug: "x", Type: models.TenantTypeHolding, Timezone: "Mars/Olympus"}},
		{"subsidiary without parent", CreateTenantRequest{Name: "X", Slug: "x", Type: models.TenantTypeSubsidiary}},
		{"holding with parent", CreateTenantRequest{Name: "X", Slug: "x", Type: models.TenantTypeHolding, ParentID: &parent}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.True(t, services.IsValidationError(err), "got %v", err)
		})
	}
}

func TestCreate_SubsidiaryUnknownParent(t *testing.T) {
	svc, _ := newTenantService(t)
	parent := uuid.New()

	_, err := svc.Create(context.Background(), CreateTenantRequest{
		Name:     "Orphan",
		Slug:     "orphan",
		Type:     models.TenantTypeSubsidiary,
		ParentID: &parent,
	})
	assert.True(t, services.IsNotFoundError(err))
}

func TestCreate_DuplicateSlug(t *testing.T) {
	svc, _ := newTenantService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTenantRequest{Name: "A", Slug: "acme", Type: models.TenantTypeHolding})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateTenantRequest{Name: "B", Slug: "acme", Type: models.TenantTypeHolding})
	assert.ErrorIs(t, err, services.ErrDuplicateSlug)
}

func TestUpdate_CapAndTimezone(t *testing.T) {
	svc, _ := newTenantService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTenantRequest{Name: "A", Slug: "acme", Type: models.TenantTypeHolding})
	require.NoError(t, err)

	cap := models.Cents(250000)
	tz := "Europe/Berlin"
	updated, err := svc.Update(ctx, created.ID, UpdateTenantRequest{
		MonthlyCapCents: &cap,
		Timezone:        &tz,
	})
	require.NoError(t, err)
	assert.Equal(t, cap, updated.MonthlyCapCents)
	assert.Equal(t, tz, updated.Timezone)

	bad := "Nowhere/Void"
	_, err = svc.Update(ctx, created.ID, UpdateTenantRequest{Timezone: &bad})
	assert.ErrorIs(t, err, services.ErrInvalidTimezone)
}

func TestAssistantQuota(t *testing.T) {
	svc, store := newTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, CreateTenantRequest{
		Name: "A", Slug: "acme", Type: models.TenantTypeHolding, MaxAssistants: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.CheckAssistantQuota(ctx, tenant))

	store.AddAssistant(models.NewAssistant(tenant.ID, "Bot", "bot", "company_ops", 1, 0))
	err = svc.CheckAssistantQuota(ctx, tenant)
	assert.ErrorIs(t, err, services.ErrAssistantQuotaExceeded)
	assert.True(t, services.IsQuotaError(err))
}

func TestUserQuota(t *testing.T) {
	svc, _ := newTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, CreateTenantRequest{
		Name: "A", Slug: "acme", Type: models.TenantTypeHolding, MaxUsers: 1,
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, tenant.ID, "ana@acme.test", "Ana", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, tenant.ID, "ben@acme.test", "Ben", models.RoleMember)
	assert.ErrorIs(t, err, services.ErrUserQuotaExceeded)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTenantService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, services.ErrTenantNotFound)
}
