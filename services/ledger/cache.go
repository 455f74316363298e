package ledger

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talos-contractor/AI-Workforce-Governance-Platform/models"
)

// SpendKey identifies one cached aggregate: an assistant-day or a
// tenant-month scope plus its period key.
type SpendKey struct {
	TenantID    uuid.UUID
	AssistantID *uuid.UUID // nil for tenant-wide scopes
	Period      string     // "2006-01-02" for days, "2006-01" for months
}

// String returns a string representation of the cache key
func (k SpendKey) String() string {
	if k.AssistantID != nil {
		return k.TenantID.String() + ":" + k.AssistantID.String() + ":" + k.Period
	}
	return k.TenantID.String() + "::" + k.Period
}

// cacheEntry represents a single cache entry with TTL
type cacheEntry struct {
	key        SpendKey
	amount     models.Cents
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// SpendCache is an in-memory LRU cache with TTL for spend aggregates.
// The TTL is a staleness bound only; correctness comes from invalidation on
// write and from the change feed. Invalidation is idempotent, so duplicate or
// out-of-order change notifications are harmless.
type SpendCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry // Key: SpendKey.String()
	lruList *list.List             // Doubly linked list for LRU tracking
	maxSize int                    // Maximum number of entries
	ttl     time.Duration          // Time-to-live for entries
	hits    uint64
	misses  uint64
}

// NewSpendCache creates a new SpendCache with specified max size and TTL
func NewSpendCache(maxSize int, ttl time.Duration) *SpendCache {
	return &SpendCache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached aggregate. Returns false if absent or expired.
func (c *SpendCache) Get(key SpendKey) (models.Cents, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()
	entry, exists := c.entries[keyStr]

	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(keyStr)
		}
		return 0, false
	}

	// Move to front (most recently used)
	c.lruList.MoveToFront(entry.element)
	c.hits++

	return entry.amount, true
}

// Set stores an aggregate in the cache
func (c *SpendCache) Set(key SpendKey, amount models.Cents) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()

	if entry, exists := c.entries[keyStr]; exists {
		entry.amount = amount
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		key:        key,
		amount:     amount,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(keyStr)
	c.entries[keyStr] = entry
}

// InvalidateAssistant removes all cached aggregates scoped to an assistant
func (c *SpendCache) InvalidateAssistant(assistantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for keyStr, entry := range c.entries {
		if entry.key.AssistantID != nil && *entry.key.AssistantID == assistantID {
			c.removeEntry(keyStr)
		}
	}
}

// InvalidateTenant removes all cached aggregates for a tenant, including the
// per-assistant entries under it
func (c *SpendCache) InvalidateTenant(tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for keyStr, entry := range c.entries {
		if entry.key.TenantID == tenantID {
			c.removeEntry(keyStr)
		}
	}
}

// Clear removes all entries from the cache
func (c *SpendCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
}

// Stats returns cache statistics
func (c *SpendCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// removeEntry removes an entry from the cache (must be called with lock held)
func (c *SpendCache) removeEntry(keyStr string) {
	if entry, exists := c.entries[keyStr]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, keyStr)
	}
}

// evictLRU evicts the least recently used entry (must be called with lock held)
func (c *SpendCache) evictLRU() {
	backElement := c.lruList.Back()
	if backElement != nil {
		keyStr := backElement.Value.(string)
		c.lruList.Remove(backElement)
		delete(c.entries, keyStr)
	}
}
