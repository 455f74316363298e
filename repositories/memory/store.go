// Package memory provides an in-memory implementation of the repository
// interfaces. It preserves the semantics the services depend on (tenant
// scoping, unique-key conflicts, and compare-and-swap approval resolution
// under a single mutex) and backs the service test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
	"github.com/talos-contractor/AI-Workforce-Governance-Platform/repositories"
)

// Store holds all entity maps behind one mutex
type Store struct {
	mu sync.Mutex

	tenants    map[uuid.UUID]*models.Tenant
	users      map[uuid.UUID]*models.User
	assistants map[uuid.UUID]*models.Assistant
	workItems  map[uuid.UUID]*models.WorkItem
	approvals  map[uuid.UUID]*models.Approval
	costs      []*models.CostTransaction
	audits     []*models.AuditLogEntry

	// seq produces strictly increasing timestamps for append-only rows so
	// ordering assertions are deterministic
	seq int64

	// FailAuditInsert forces audit writes to fail, for write-ahead tests
	FailAuditInsert error
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		tenants:    make(map[uuid.UUID]*models.Tenant),
		users:      make(map[uuid.UUID]*models.User),
		assistants: make(map[uuid.UUID]*models.Assistant),
		workItems:  make(map[uuid.UUID]*models.WorkItem),
		approvals:  make(map[uuid.UUID]*models.Approval),
	}
}

// Repositories returns the full repository set backed by this store
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Tenants:    &tenantRepo{s},
		Users:      &userRepo{s},
		Assistants: &assistantRepo{s},
		WorkItems:  &workItemRepo{s},
		Approvals:  &approvalRepo{s},
		Costs:      &costRepo{s},
		AuditLogs:  &auditRepo{s},
	}
}

// TransactionManager returns a pass-through transaction manager. In-memory
// operations are individually atomic; there is no rollback.
func (s *Store) TransactionManager() repositories.TransactionManager {
	return &txManager{}
}

// nextTime returns a strictly increasing timestamp (lock must be held)
func (s *Store) nextTime() time.Time {
	s.seq++
	return time.Now().Add(time.Duration(s.seq))
}

// AuditEntries returns a snapshot of all recorded audit entries
func (s *Store) AuditEntries() []*models.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.AuditLogEntry(nil), s.audits...)
}

// CostTransactions returns a snapshot of all cost transactions
func (s *Store) CostTransactions() []*models.CostTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.CostTransaction(nil), s.costs...)
}

// Seed helpers for tests

// AddTenant stores a tenant directly
func (s *Store) AddTenant(t *models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

// AddAssistant stores an assistant directly
func (s *Store) AddAssistant(a *models.Assistant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistants[a.ID] = a
}

// AddWorkItem stores a work item directly
func (s *Store) AddWorkItem(w *models.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workItems[w.ID] = w
}

// AddUser stores a user directly
func (s *Store) AddUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

type txManager struct{}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func (m *txManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return noopTx{}, nil
}

func (m *txManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// tenantRepo

type tenantRepo struct{ s *Store }

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tenants {
		if existing.Slug == tenant.Slug {
			return repositories.ErrDuplicate
		}
	}
	r.s.tenants[tenant.ID] = tenant
	return nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tenant, ok := r.s.tenants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return tenant, nil
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tenant := range r.s.tenants {
		if tenant.Slug == slug {
			return tenant, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*models.Tenant
	for _, tenant := range r.s.tenants {
		all = append(all, tenant)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func (r *tenantRepo) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var children []*models.Tenant
	for _, tenant := range r.s.tenants {
		if tenant.ParentID != nil && *tenant.ParentID == parentID {
			children = append(children, tenant)
		}
	}
	return children, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[tenant.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.tenants[tenant.ID] = tenant
	return nil
}

func (r *tenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.tenants, id)
	return nil
}

// userRepo

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok || user.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (r *userRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []*models.User
	for _, user := range r.s.users {
		if user.TenantID == tenantID {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *userRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	users, _ := r.ListByTenant(ctx, tenantID)
	return len(users), nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *userRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok || user.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

// assistantRepo

type assistantRepo struct{ s *Store }

func (r *assistantRepo) Create(ctx context.Context, assistant *models.Assistant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.assistants {
		if existing.TenantID == assistant.TenantID && existing.Slug == assistant.Slug {
			return repositories.ErrDuplicate
		}
	}
	r.s.assistants[assistant.ID] = assistant
	return nil
}

func (r *assistantRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Assistant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assistant, ok := r.s.assistants[id]
	if !ok || assistant.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	return assistant, nil
}

func (r *assistantRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Assistant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var assistants []*models.Assistant
	for _, assistant := range r.s.assistants {
		if assistant.TenantID == tenantID {
			assistants = append(assistants, assistant)
		}
	}
	return assistants, nil
}

func (r *assistantRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	assistants, _ := r.ListByTenant(ctx, tenantID)
	return len(assistants), nil
}

func (r *assistantRepo) Update(ctx context.Context, assistant *models.Assistant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.assistants[assistant.ID]
	if !ok || existing.TenantID != assistant.TenantID {
		return repositories.ErrNotFound
	}
	r.s.assistants[assistant.ID] = assistant
	return nil
}

func (r *assistantRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.AssistantStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assistant, ok := r.s.assistants[id]
	if !ok || assistant.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	assistant.Status = status
	return nil
}

func (r *assistantRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assistant, ok := r.s.assistants[id]
	if !ok || assistant.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	delete(r.s.assistants, id)
	return nil
}

// workItemRepo

type workItemRepo struct{ s *Store }

func (r *workItemRepo) Create(ctx context.Context, item *models.WorkItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *item
	r.s.workItems[item.ID] = &stored
	return nil
}

func (r *workItemRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.workItems[id]
	if !ok || item.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *workItemRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []*models.WorkItem
	for _, item := range r.s.workItems {
		if item.TenantID == tenantID {
			clone := *item
			items = append(items, &clone)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return paginate(items, limit, offset), nil
}

func (r *workItemRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.WorkItemStatus, completedAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.workItems[id]
	if !ok || item.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	item.Status = status
	item.CompletedAt = completedAt
	return nil
}

func (r *workItemRepo) Complete(ctx context.Context, tenantID, id uuid.UUID, result *string, completedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.workItems[id]
	if !ok || item.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	at := completedAt
	item.Status = models.WorkItemStatusCompleted
	item.Result = result
	item.CompletedAt = &at
	return nil
}

// approvalRepo

type approvalRepo struct{ s *Store }

func (r *approvalRepo) Create(ctx context.Context, approval *models.Approval) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.approvals {
		if existing.WorkItemID == approval.WorkItemID && existing.Status == models.ApprovalStatusPending {
			return repositories.ErrDuplicate
		}
	}
	stored := *approval
	r.s.approvals[approval.ID] = &stored
	return nil
}

func (r *approvalRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Approval, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	approval, ok := r.s.approvals[id]
	if !ok || approval.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	clone := *approval
	return &clone, nil
}

func (r *approvalRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, status *models.ApprovalStatus, limit, offset int) ([]*models.Approval, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var approvals []*models.Approval
	for _, approval := range r.s.approvals {
		if approval.TenantID != tenantID {
			continue
		}
		if status != nil && approval.Status != *status {
			continue
		}
		clone := *approval
		approvals = append(approvals, &clone)
	}
	sort.Slice(approvals, func(i, j int) bool { return approvals[i].CreatedAt.After(approvals[j].CreatedAt) })
	return paginate(approvals, limit, offset), nil
}

func (r *approvalRepo) GetPendingByWorkItem(ctx context.Context, tenantID, workItemID uuid.UUID) (*models.Approval, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, approval := range r.s.approvals {
		if approval.TenantID == tenantID && approval.WorkItemID == workItemID && approval.Status == models.ApprovalStatusPending {
			clone := *approval
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Resolve applies the compare-and-swap exactly like the SQL implementation:
// the transition lands only if the row is still pending (and unexpired when
// required); otherwise the caller is told it lost.
func (r *approvalRepo) Resolve(ctx context.Context, params repositories.ResolveApprovalParams) (*models.Approval, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	approval, ok := r.s.approvals[params.ApprovalID]
	if !ok || approval.TenantID != params.TenantID {
		return nil, false, nil
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, false, nil
	}
	if params.RequireUnexpired && !params.Now.Before(approval.ExpiresAt) {
		return nil, false, nil
	}

	approval.Status = params.Status
	approval.ApprovedBy = params.ApprovedBy
	approval.RejectedReason = params.RejectedReason
	resolvedAt := params.ResolvedAt
	approval.ResolvedAt = &resolvedAt

	clone := *approval
	return &clone, true, nil
}

func (r *approvalRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Approval, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var expired []*models.Approval
	for _, approval := range r.s.approvals {
		if approval.Status == models.ApprovalStatusPending && !now.Before(approval.ExpiresAt) {
			clone := *approval
			expired = append(expired, &clone)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	return paginate(expired, limit, 0), nil
}

// costRepo

type costRepo struct{ s *Store }

func (r *costRepo) Insert(ctx context.Context, txn *models.CostTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if txn.IdempotencyKey != nil {
		for _, existing := range r.s.costs {
			if existing.AssistantID == txn.AssistantID &&
				existing.IdempotencyKey != nil && *existing.IdempotencyKey == *txn.IdempotencyKey {
				return repositories.ErrDuplicate
			}
		}
	}
	txn.CreatedAt = r.s.nextTime()
	r.s.costs = append(r.s.costs, txn)
	return nil
}

func (r *costRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CostTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, txn := range r.s.costs {
		if txn.ID == id && txn.TenantID == tenantID {
			return txn, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *costRepo) GetByIdempotencyKey(ctx context.Context, assistantID uuid.UUID, key string) (*models.CostTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, txn := range r.s.costs {
		if txn.AssistantID == assistantID && txn.IdempotencyKey != nil && *txn.IdempotencyKey == key {
			return txn, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *costRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.CostTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var txns []*models.CostTransaction
	for _, txn := range r.s.costs {
		if txn.TenantID == tenantID {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	return paginate(txns, limit, offset), nil
}

func (r *costRepo) SumByAssistant(ctx context.Context, assistantID uuid.UUID, from, to time.Time) (models.Cents, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total models.Cents
	for _, txn := range r.s.costs {
		if txn.AssistantID == assistantID && inRange(txn.CreatedAt, from, to) {
			total += txn.AmountCents
		}
	}
	return total, nil
}

func (r *costRepo) SumByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (models.Cents, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total models.Cents
	for _, txn := range r.s.costs {
		if txn.TenantID == tenantID && inRange(txn.CreatedAt, from, to) {
			total += txn.AmountCents
		}
	}
	return total, nil
}

func (r *costRepo) SumByProvider(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]models.Cents, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := make(map[string]models.Cents)
	for _, txn := range r.s.costs {
		if txn.TenantID == tenantID && inRange(txn.CreatedAt, from, to) {
			totals[txn.Provider] += txn.AmountCents
		}
	}
	return totals, nil
}

// auditRepo

type auditRepo struct{ s *Store }

func (r *auditRepo) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailAuditInsert != nil {
		return r.s.FailAuditInsert
	}
	entry.Timestamp = r.s.nextTime()
	r.s.audits = append(r.s.audits, entry)
	return nil
}

func (r *auditRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.audits {
		if entry.ID == id && entry.TenantID == tenantID {
			return entry, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *auditRepo) Query(ctx context.Context, tenantID uuid.UUID, filter repositories.AuditFilter) ([]*models.AuditLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var entries []*models.AuditLogEntry
	for _, entry := range r.s.audits {
		if entry.TenantID != tenantID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != nil && entry.EntityID != *filter.EntityID {
			continue
		}
		if !filter.From.IsZero() && entry.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.Timestamp.After(filter.To) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	return paginate(entries, limit, filter.Offset), nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
