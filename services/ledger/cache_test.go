package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func assistantKey(tenantID, assistantID uuid.UUID, period string) SpendKey {
	return SpendKey{TenantID: tenantID, AssistantID: &assistantID, Period: period}
}

func TestSpendCache_SetAndGet(t *testing.T) {
	cache := NewSpendCache(10, time.Minute)
	key := assistantKey(uuid.New(), uuid.New(), "2026-08-31")

	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Set(key, 4500)
	amount, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, int64(4500), int64(amount))

	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestSpendCache_TTLExpiry(t *testing.T) {
	cache := NewSpendCache(10, 10*time.Millisecond)
	key := assistantKey(uuid.New(), uuid.New(), "2026-08-31")

	cache.Set(key, 100)
	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get(key)
	assert.False(t, ok, "entry past TTL is a miss")
}

func TestSpendCache_LRUEviction(t *testing.T) {
	cache := NewSpendCache(2, time.Minute)
	tenantID := uuid.New()

	k1 := assistantKey(tenantID, uuid.New(), "2026-08-01")
	k2 := assistantKey(tenantID, uuid.New(), "2026-08-02")
	k3 := assistantKey(tenantID, uuid.New(), "2026-08-03")

	cache.Set(k1, 1)
	cache.Set(k2, 2)
	cache.Get(k1) // k2 becomes least recently used
	cache.Set(k3, 3)

	_, ok := cache.Get(k2)
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = cache.Get(k1)
	assert.True(t, ok)
	_, ok = cache.Get(k3)
	assert.True(t, ok)
}

func TestSpendCache_InvalidateAssistant(t *testing.T) {
	cache := NewSpendCache(10, time.Minute)
	tenantID := uuid.New()
	assistantID := uuid.New()

	cache.Set(assistantKey(tenantID, assistantID, "2026-08-30"), 100)
	cache.Set(assistantKey(tenantID, assistantID, "2026-08-31"), 200)
	cache.Set(SpendKey{TenantID: tenantID, Period: "2026-08"}, 300)

	cache.InvalidateAssistant(assistantID)

	_, ok := cache.Get(assistantKey(tenantID, assistantID, "2026-08-30"))
	assert.False(t, ok)
	_, ok = cache.Get(assistantKey(tenantID, assistantID, "2026-08-31"))
	assert.False(t, ok)

	amount, ok := cache.Get(SpendKey{TenantID: tenantID, Period: "2026-08"})
	assert.True(t, ok, "tenant-wide entry survives assistant invalidation")
	assert.Equal(t, int64(300), int64(amount))
}

func TestSpendCache_InvalidateTenant(t *testing.T) {
	cache := NewSpendCache(10, time.Minute)
	tenantID := uuid.New()
	otherTenant := uuid.New()

	cache.Set(assistantKey(tenantID, uuid.New(), "2026-08-31"), 100)
	cache.Set(SpendKey{TenantID: tenantID, Period: "2026-08"}, 200)
	cache.Set(SpendKey{TenantID: otherTenant, Period: "2026-08"}, 300)

	cache.InvalidateTenant(tenantID)
	// invalidation is idempotent
	cache.InvalidateTenant(tenantID)

	assert.Equal(t, 1, cache.Stats().Size)
	_, ok := cache.Get(SpendKey{TenantID: otherTenant, Period: "2026-08"})
	assert.True(t, ok)
}
