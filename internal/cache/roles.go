// Package cache holds the role-permission cache behind every
// authorization decision. It is a port: the guard and the role and
// permission mutation paths depend on the interface, not on redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gomall/internal/errs"
	"gomall/internal/models"

	"github.com/redis/go-redis/v9"
)

// TTL is the lifetime of one cached role entry. Entries die earlier
// whenever a mutation to the role or its permissions invalidates them.
const TTL = time.Hour

// CachedRole is the derived, ephemeral view of a role: its attributes
// plus permissions indexed by "{path}:{method}".
type CachedRole struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	IsActive    bool                         `json:"isActive"`
	Permissions map[string]models.Permission `json:"permissions"`
}

// BuildCachedRole indexes a loaded role's permissions for guard lookup.
func BuildCachedRole(role *models.Role) *CachedRole {
	indexed := make(map[string]models.Permission, len(role.Permissions))
	for _, p := range role.Permissions {
		indexed[p.Key()] = p
	}
	return &CachedRole{
		ID:          role.ID,
		Name:        role.Name,
		IsActive:    role.IsActive,
		Permissions: indexed,
	}
}

// RolePermissionCache is the cache port. Get returns errs.ErrCacheMiss
// when the role is not cached; any store-level failure surfaces as-is.
type RolePermissionCache interface {
	Get(ctx context.Context, roleID string) (*CachedRole, error)
	Set(ctx context.Context, role *CachedRole) error
	Invalidate(ctx context.Context, roleIDs ...string) error
}

// Key renders the cache key for a role ID.
func Key(roleID string) string {
	return fmt.Sprintf("role:%s", roleID)
}

// RedisRoleCache is the production implementation.
type RedisRoleCache struct {
	client *redis.Client
}

func NewRedisRoleCache(client *redis.Client) *RedisRoleCache {
	return &RedisRoleCache{client: client}
}

func (c *RedisRoleCache) Get(ctx context.Context, roleID string) (*CachedRole, error) {
	data, err := c.client.Get(ctx, Key(roleID)).Bytes()
	if err == redis.Nil {
		return nil, errs.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	role := &CachedRole{}
	if err := json.Unmarshal(data, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (c *RedisRoleCache) Set(ctx context.Context, role *CachedRole) error {
	data, err := json.Marshal(role)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(role.ID), data, TTL).Err()
}

func (c *RedisRoleCache) Invalidate(ctx context.Context, roleIDs ...string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		keys = append(keys, Key(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
