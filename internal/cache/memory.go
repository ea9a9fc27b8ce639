package cache

import (
	"context"
	"sync"
	"time"

	"gomall/internal/errs"
)

// MemoryRoleCache is an in-process implementation of the cache port.
// Tests and single-node deployments without redis use it.
type MemoryRoleCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	role      *CachedRole
	expiresAt time.Time
}

func NewMemoryRoleCache() *MemoryRoleCache {
	return &MemoryRoleCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryRoleCache) Get(ctx context.Context, roleID string) (*CachedRole, error) {
	c.mu.RLock()
	entry, ok := c.entries[Key(roleID)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, errs.ErrCacheMiss
	}
	return entry.role, nil
}

func (c *MemoryRoleCache) Set(ctx context.Context, role *CachedRole) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(role.ID)] = memoryEntry{role: role, expiresAt: time.Now().Add(TTL)}
	return nil
}

func (c *MemoryRoleCache) Invalidate(ctx context.Context, roleIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range roleIDs {
		delete(c.entries, Key(id))
	}
	return nil
}
