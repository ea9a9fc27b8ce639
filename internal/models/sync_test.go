package models

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func perm(path, method string) Permission {
	return Permission{Path: path, Method: HTTPMethod(method), Name: method + " " + path}
}

func TestDiffRoutePermissions(t *testing.T) {
	routes := []RouteDef{
		{Path: "/api/v1/carts", Method: "GET"},
		{Path: "/api/v1/carts", Method: "POST"},
		{Path: "/api/v1/orders", Method: "POST"},
	}
	existing := []Permission{
		perm("/api/v1/carts", "GET"),
		perm("/api/v1/old-route", "DELETE"),
	}

	toCreate, toDelete := diffRoutePermissions(routes, existing)

	assert.Len(t, toCreate, 2)
	assert.Len(t, toDelete, 1)
	assert.Equal(t, "/api/v1/old-route", toDelete[0].Path)

	created := make(map[string]bool)
	for _, r := range toCreate {
		created[PermissionKey(r.Path, r.Method)] = true
	}
	assert.True(t, created["/api/v1/carts:POST"])
	assert.True(t, created["/api/v1/orders:POST"])
}

func TestDiffRoutePermissions_Idempotent(t *testing.T) {
	routes := []RouteDef{
		{Path: "/api/v1/roles", Method: "GET"},
		{Path: "/api/v1/roles/:roleId", Method: "PUT"},
	}

	// First pass fills the gap.
	toCreate, toDelete := diffRoutePermissions(routes, nil)
	assert.Len(t, toCreate, 2)
	assert.Empty(t, toDelete)

	// Apply the first pass and diff again: nothing left to do.
	var existing []Permission
	for _, r := range toCreate {
		existing = append(existing, perm(r.Path, r.Method))
	}
	toCreate, toDelete = diffRoutePermissions(routes, existing)
	assert.Empty(t, toCreate)
	assert.Empty(t, toDelete)
}

type recordingInvalidator struct {
	roleIDs []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, roleIDs ...string) error {
	r.roleIDs = append(r.roleIDs, roleIDs...)
	return nil
}

// Reconciliation rewrites role permission sets, so every touched role
// must be dropped from the cache before the sync returns.
func TestSyncPermissions_InvalidatesTouchedRoles(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&Role{}, &Permission{}))
	require.NoError(t, EnsureBaseRoles(gdb))

	// A custom role holding a permission whose route no longer exists.
	orphan := Permission{Name: "DELETE /api/v1/old-route", Path: "/api/v1/old-route", Method: MethodDelete, Module: "OLD-ROUTE"}
	require.NoError(t, gdb.Create(&orphan).Error)
	custom := Role{Name: "SUPPORT", IsActive: true, Permissions: []Permission{orphan}}
	require.NoError(t, gdb.Create(&custom).Error)

	inv := &recordingInvalidator{}
	routes := []RouteDef{{Path: "/api/v1/carts", Method: "GET"}}
	require.NoError(t, SyncPermissions(gdb, routes, inv))

	var orphanCount int64
	require.NoError(t, gdb.Unscoped().Model(&Permission{}).Where("path = ?", orphan.Path).Count(&orphanCount).Error)
	assert.Zero(t, orphanCount)

	invalidated := make(map[string]bool, len(inv.roleIDs))
	for _, id := range inv.roleIDs {
		invalidated[id] = true
	}
	assert.True(t, invalidated[custom.ID], "role that lost the orphan must be invalidated")
	for _, name := range []string{RoleNameAdmin, RoleNameClient, RoleNameSeller} {
		role, err := GetRoleByName(gdb, name)
		require.NoError(t, err)
		assert.True(t, invalidated[role.ID], "base role %s must be invalidated", name)
	}
}

func TestRouteDefModule(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/v1/carts", "CARTS"},
		{"/api/v1/product-translations/:id", "PRODUCT-TRANSLATIONS"},
		{"/api/v1/payment/receiver", "PAYMENT"},
		{"/health", "HEALTH"},
		{"/", "ROOT"},
	}
	for _, tt := range tests {
		r := RouteDef{Path: tt.path, Method: "GET"}
		assert.Equal(t, tt.expected, r.Module(), tt.path)
	}
}

func TestIsBaseRole(t *testing.T) {
	assert.True(t, IsBaseRole(RoleNameAdmin))
	assert.True(t, IsBaseRole(RoleNameClient))
	assert.True(t, IsBaseRole(RoleNameSeller))
	assert.False(t, IsBaseRole("SUPPORT"))
}

func TestPermissionKey(t *testing.T) {
	p := perm("/api/v1/orders/:orderId", "GET")
	assert.Equal(t, "/api/v1/orders/:orderId:GET", p.Key())
}
