package tenant

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/services/audit"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreateTenantRequest represents a request to create a tenant
type CreateTenantRequest struct {
	Name            string
	Slug            string
	Type            models.TenantType
	ParentID        *uuid.UUID
	MonthlyCapCents models.Cents
	MaxAssistants   int
	MaxUsers        int
	Timezone        string
	ActorID         uuid.UUID
}

// UpdateTenantRequest carries the mutable tenant fields. Nil means unchanged.
type UpdateTenantRequest struct {
	Name            *string
	MonthlyCapCents *models.Cents
	MaxAssistants   *int
	MaxUsers        *int
	Timezone        *string
	ActorID         uuid.UUID
}

// Service manages the tenant tree and its quota limits. The monthly budget
// cap is owned per tenant: a subsidiary's cap is independent of its parent's.
type Service struct {
	tenants    repositories.TenantRepository
	users      repositories.UserRepository
	assistants repositories.AssistantRepository
	txManager  repositories.TransactionManager
	recorder   *audit.Recorder
	logger     *zap.Logger
}

// NewService creates a new tenant Service instance
func NewService(
	tenants repositories.TenantRepository,
	users repositories.UserRepository,
	assistants repositories.AssistantRepository,
	txManager repositories.TransactionManager,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		tenants:    tenants,
		users:      users,
		assistants: assistants,
		txManager:  txManager,
		recorder:   recorder,
		logger:     logger,
	}
}

// Create creates a tenant. Subsidiaries must name an existing parent;
// holdings must not.
func (s *Service) Create(ctx context.Context, req CreateTenantRequest) (*models.Tenant, error) {
	if req.Name == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "name")
	}
	if !slugPattern.MatchString(req.Slug) {
		return nil, services.ErrInvalidSlug.WithDetail("slug", req.Slug)
	}
	switch req.Type {
	case models.TenantTypeHolding, models.TenantTypeSubsidiary, models.TenantTypePrimary:
	default:
		return nil, services.ErrInvalidInput.WithDetail("field", "type")
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, services.ErrInvalidTimezone.WithDetail("timezone", req.Timezone)
		}
	}

	if req.Type == models.TenantTypeSubsidiary {
		if req.ParentID == nil {
			return nil, services.ErrInvalidInput.WithDetail("field", "parent_id")
		}
		if _, err := s.tenants.GetByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrTenantNotFound.WithDetail("parent_id", req.ParentID.String())
			}
			return nil, services.WrapInternal("failed to load parent tenant", err)
		}
	} else if req.ParentID != nil {
		return nil, services.ErrInvalidInput.WithDetail("field", "parent_id")
	}

	tenant := models.NewTenant(req.Name, req.Slug, req.Type).
		WithMonthlyCap(req.MonthlyCapCents).
		WithQuotas(req.MaxAssistants, req.MaxUsers)
	if req.ParentID != nil {
		tenant.WithParent(*req.ParentID)
	}
	if req.Timezone != "" {
		tenant.Timezone = req.Timezone
	}

	err := s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tenants.Create(ctx, tenant); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(tenant.ID, models.ActorTypeUser, req.ActorID,
			models.AuditActionTenantCreated, models.Tenant{}.TableName(), tenant.ID).
			WithDetails(map[string]interface{}{
				"slug": tenant.Slug,
				"type": string(tenant.Type),
			})
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateSlug.WithDetail("slug", req.Slug)
		}
		return nil, services.WrapInternal("failed to create tenant", err)
	}

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
		zap.String("type", string(tenant.Type)))
	return tenant, nil
}

// Get retrieves a tenant by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTenantNotFound
		}
		return nil, services.WrapInternal("failed to get tenant", err)
	}
	return tenant, nil
}

// GetBySlug retrieves a tenant by slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	tenant, err := s.tenants.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTenantNotFound
		}
		return nil, services.WrapInternal("failed to get tenant", err)
	}
	return tenant, nil
}

// List retrieves tenants with pagination
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 50
	}
	tenants, err := s.tenants.List(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list tenants", err)
	}
	return tenants, nil
}

// ListChildren retrieves the direct subsidiaries of a tenant
func (s *Service) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*models.Tenant, error) {
	children, err := s.tenants.ListChildren(ctx, parentID)
	if err != nil {
		return nil, services.WrapInternal("failed to list child tenants", err)
	}
	return children, nil
}

// Update applies the provided fields to a tenant
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, services.ErrInvalidInput.WithDetail("field", "name")
		}
		tenant.Name = *req.Name
	}
	if req.MonthlyCapCents != nil {
		tenant.MonthlyCapCents = *req.MonthlyCapCents
	}
	if req.MaxAssistants != nil {
		tenant.MaxAssistants = *req.MaxAssistants
	}
	if req.MaxUsers != nil {
		tenant.MaxUsers = *req.MaxUsers
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, services.ErrInvalidTimezone.WithDetail("timezone", *req.Timezone)
		}
		tenant.Timezone = *req.Timezone
	}
	tenant.UpdatedAt = time.Now()

	err = s.txManager.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tenants.Update(ctx, tenant); err != nil {
			return err
		}
		entry := models.NewAuditLogEntry(tenant.ID, models.ActorTypeUser, req.ActorID,
			models.AuditActionTenantUpdated, models.Tenant{}.TableName(), tenant.ID)
		return s.recorder.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTenantNotFound
		}
		return nil, services.WrapInternal("failed to update tenant", err)
	}

	return tenant, nil
}

// CheckAssistantQuota fails with a quota error when the tenant is at its
// assistant limit. A limit of zero means unlimited.
func (s *Service) CheckAssistantQuota(ctx context.Context, tenant *models.Tenant) error {
	if tenant.MaxAssistants <= 0 {
		return nil
	}
	count, err := s.assistants.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return services.WrapInternal("failed to count assistants", err)
	}
	if count >= tenant.MaxAssistants {
		return services.ErrAssistantQuotaExceeded.WithDetail("max_assistants", tenant.MaxAssistants)
	}
	return nil
}

// CheckUserQuota fails with a quota error when the tenant is at its user
// limit. A limit of zero means unlimited.
func (s *Service) CheckUserQuota(ctx context.Context, tenant *models.Tenant) error {
	if tenant.MaxUsers <= 0 {
		return nil
	}
	count, err := s.users.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return services.WrapInternal("failed to count users", err)
	}
	if count >= tenant.MaxUsers {
		return services.ErrUserQuotaExceeded.WithDetail("max_users", tenant.MaxUsers)
	}
	return nil
}

// CreateUser creates a user profile under a tenant, enforcing the user quota
func (s *Service) CreateUser(ctx context.Context, tenantID uuid.UUID, email, name string, role models.UserRole) (*models.User, error) {
	if email == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "email")
	}

	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckUserQuota(ctx, tenant); err != nil {
		return nil, err
	}

	user := models.NewUser(email, name, tenantID, role)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.NewDomainError(services.ErrorTypeConflict, "email already registered", nil)
		}
		return nil, services.WrapInternal("failed to create user", err)
	}
	return user, nil
}

// GetUser retrieves a user scoped to a tenant
func (s *Service) GetUser(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to get user", err)
	}
	return user, nil
}
