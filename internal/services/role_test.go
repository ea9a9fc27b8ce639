package services

import (
	"context"
	"testing"

	"gomall/internal/cache"
	"gomall/internal/errs"
	"gomall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPermission(t *testing.T, svc *PermissionService, path string, method models.HTTPMethod) *models.Permission {
	t.Helper()
	p, err := svc.Create(context.Background(), PermissionInput{
		Name:   string(method) + " " + path,
		Path:   path,
		Method: method,
		Module: "TEST",
	}, "")
	require.NoError(t, err)
	return p
}

func TestRoleService_CreateAndConflict(t *testing.T) {
	gdb := newTestDB(t)
	roleCache := cache.NewMemoryRoleCache()
	svc := NewRoleService(gdb, roleCache)
	ctx := context.Background()

	role, err := svc.Create(ctx, RoleInput{Name: "SUPPORT", Description: "support staff"}, "")
	require.NoError(t, err)
	assert.True(t, role.IsActive)

	_, err = svc.Create(ctx, RoleInput{Name: "SUPPORT"}, "")
	assert.ErrorIs(t, err, errs.ErrRoleAlreadyExists)
}

func TestRoleService_UpdateInvalidatesCache(t *testing.T) {
	gdb := newTestDB(t)
	roleCache := cache.NewMemoryRoleCache()
	roleSvc := NewRoleService(gdb, roleCache)
	permSvc := NewPermissionService(gdb, roleCache)
	ctx := context.Background()

	perm := seedPermission(t, permSvc, "/api/v1/orders", models.MethodGet)
	role, err := roleSvc.Create(ctx, RoleInput{Name: "SUPPORT", PermissionIDs: []string{perm.ID}}, "")
	require.NoError(t, err)

	// Simulate a warm guard cache.
	loaded, err := roleSvc.Get(ctx, role.ID)
	require.NoError(t, err)
	require.NoError(t, roleCache.Set(ctx, cache.BuildCachedRole(loaded)))

	_, err = roleSvc.Update(ctx, role.ID, RoleInput{PermissionIDs: []string{}}, "")
	require.NoError(t, err)

	// The success response implies the cache no longer holds the old set.
	_, err = roleCache.Get(ctx, role.ID)
	assert.ErrorIs(t, err, errs.ErrCacheMiss)

	reloaded, err := roleSvc.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Permissions)
}

func TestRoleService_BaseRoleProtection(t *testing.T) {
	gdb := newTestDB(t)
	roleCache := cache.NewMemoryRoleCache()
	svc := NewRoleService(gdb, roleCache)
	ctx := context.Background()

	admin, err := svc.Create(ctx, RoleInput{Name: models.RoleNameAdmin}, "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin.ID, RoleInput{Name: "SUPERADMIN"}, "")
	assert.ErrorIs(t, err, errs.ErrProhibitedOnBaseRole)

	err = svc.Delete(ctx, admin.ID, "")
	assert.ErrorIs(t, err, errs.ErrProhibitedOnBaseRole)

	// Permission changes on base roles stay allowed.
	_, err = svc.Update(ctx, admin.ID, RoleInput{Description: "root"}, "")
	assert.NoError(t, err)
}

func TestRoleService_Delete(t *testing.T) {
	gdb := newTestDB(t)
	roleCache := cache.NewMemoryRoleCache()
	svc := NewRoleService(gdb, roleCache)
	ctx := context.Background()

	role, err := svc.Create(ctx, RoleInput{Name: "TEMP"}, "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, role.ID, ""))

	_, err = svc.Get(ctx, role.ID)
	assert.ErrorIs(t, err, errs.ErrNotFoundRecord)

	// Soft delete: the row survives with a stamp.
	var count int64
	require.NoError(t, gdb.Model(&models.Role{}).Where("id = ? AND deleted_at IS NOT NULL", role.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPermissionService_RouteConflict(t *testing.T) {
	gdb := newTestDB(t)
	roleCache := cache.NewMemoryRoleCache()
	svc := NewPermissionService(gdb, roleCache)
	ctx := context.Background()

	seedPermission(t, svc, "/api/v1/orders", models.MethodGet)
	_, err := svc.Create(ctx, PermissionInput{
		Name: "dup", Path: "/api/v1/orders", Method: models.MethodGet, Module: "TEST",
	}, "")
	assert.ErrorIs(t, err, errs.ErrPermissionAlreadyExists)

	// Same path, different method, is a distinct route.
	_, err = svc.Create(ctx, PermissionInput{
		Name: "create", Path: "/api/v1/orders", Method: models.MethodPost, Module: "TEST",
	}, "")
	assert.NoError(t, err)
}

func TestPermissionService_MutationInvalidatesLinkedRoles(t *testing.T) {
	gdb := newTestDB(t)
	roleCache := cache.NewMemoryRoleCache()
	roleSvc := NewRoleService(gdb, roleCache)
	permSvc := NewPermissionService(gdb, roleCache)
	ctx := context.Background()

	perm := seedPermission(t, permSvc, "/api/v1/orders", models.MethodGet)
	role, err := roleSvc.Create(ctx, RoleInput{Name: "SUPPORT", PermissionIDs: []string{perm.ID}}, "")
	require.NoError(t, err)

	loaded, err := roleSvc.Get(ctx, role.ID)
	require.NoError(t, err)
	require.NoError(t, roleCache.Set(ctx, cache.BuildCachedRole(loaded)))

	require.NoError(t, permSvc.Delete(ctx, perm.ID, ""))

	_, err = roleCache.Get(ctx, role.ID)
	assert.ErrorIs(t, err, errs.ErrCacheMiss)
}
