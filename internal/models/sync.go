package models

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// RoleCacheInvalidator drops cached permission sets for the given
// roles. Satisfied by the role cache; declared here so the sync path
// does not depend on the cache package.
type RoleCacheInvalidator interface {
	Invalidate(ctx context.Context, roleIDs ...string) error
}

// RouteDef is one entry of the live route table, as collected from the
// running HTTP server.
type RouteDef struct {
	Path   string
	Method string
}

// Name renders the canonical permission name for a route.
func (r RouteDef) Name() string {
	return r.Method + " " + r.Path
}

// Module derives the owning module tag from the first path segment
// after the API prefix, uppercased ("/api/v1/carts/:id" -> "CARTS").
func (r RouteDef) Module() string {
	path := strings.TrimPrefix(r.Path, "/api/v1")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "ROOT"
	}
	return strings.ToUpper(parts[0])
}

// Module allowlists for the non-admin base roles. Admin gets every
// permission; these mirror what a buyer and a shop account may touch.
var (
	sellerModules = []string{"AUTH", "USERS", "CARTS", "ORDERS", "PRODUCTS", "PRODUCT-TRANSLATIONS", "SKUS", "BRANDS", "CATEGORIES", "WS"}
	clientModules = []string{"AUTH", "USERS", "CARTS", "ORDERS", "PRODUCTS", "SKUS", "REVIEWS", "WS"}
)

// diffRoutePermissions computes the reconciliation between the live
// route table and the active permission rows: permissions whose route
// no longer exists are returned for deletion, routes with no
// permission row are returned for creation. Running the diff on its
// own output is empty, which makes SyncPermissions idempotent.
func diffRoutePermissions(routes []RouteDef, existing []Permission) (toCreate []RouteDef, toDelete []Permission) {
	routeSet := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		routeSet[PermissionKey(r.Path, r.Method)] = struct{}{}
	}

	permSet := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		key := p.Key()
		permSet[key] = struct{}{}
		if _, ok := routeSet[key]; !ok {
			toDelete = append(toDelete, p)
		}
	}

	for _, r := range routes {
		if _, ok := permSet[PermissionKey(r.Path, r.Method)]; !ok {
			toCreate = append(toCreate, r)
		}
	}

	return toCreate, toDelete
}

// SyncPermissions reconciles stored permissions against the live route
// table: orphaned rows are hard-deleted, missing routes are inserted,
// then each base role's permission set is reset from the result. Every
// role whose permission set may have changed is dropped from the cache
// before returning, so a stale cached set never outlives the sync.
func SyncPermissions(db *gorm.DB, routes []RouteDef, invalidator RoleCacheInvalidator) error {
	var existing []Permission
	if err := Active(db).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}

	toCreate, toDelete := diffRoutePermissions(routes, existing)

	staleRoleIDs := make(map[string]struct{})

	if len(toDelete) > 0 {
		ids := make([]string, 0, len(toDelete))
		for _, p := range toDelete {
			ids = append(ids, p.ID)
		}
		// Custom roles may hold the orphans being removed; remember
		// them before the join rows go away.
		var linkedRoleIDs []string
		if err := db.Table("role_permissions").Where("permission_id IN ?", ids).
			Distinct().Pluck("role_id", &linkedRoleIDs).Error; err != nil {
			return fmt.Errorf("failed to load roles linked to orphaned permissions: %w", err)
		}
		for _, id := range linkedRoleIDs {
			staleRoleIDs[id] = struct{}{}
		}

		// Orphans are dead routes, not recoverable data. Hard delete.
		if err := db.Unscoped().Where("id IN ?", ids).Delete(&Permission{}).Error; err != nil {
			return fmt.Errorf("failed to delete orphaned permissions: %w", err)
		}
		log.Info("Deleted %d orphaned permissions", len(toDelete))
	}

	if len(toCreate) > 0 {
		perms := make([]Permission, 0, len(toCreate))
		for _, r := range toCreate {
			perms = append(perms, Permission{
				Name:   r.Name(),
				Path:   r.Path,
				Method: HTTPMethod(r.Method),
				Module: r.Module(),
			})
		}
		if err := db.CreateInBatches(&perms, 100).Error; err != nil {
			return fmt.Errorf("failed to create permissions: %w", err)
		}
		log.Info("Created %d permissions", len(toCreate))
	}

	if err := resyncBaseRoles(db, staleRoleIDs); err != nil {
		return err
	}

	if invalidator != nil && len(staleRoleIDs) > 0 {
		roleIDs := make([]string, 0, len(staleRoleIDs))
		for id := range staleRoleIDs {
			roleIDs = append(roleIDs, id)
		}
		if err := invalidator.Invalidate(context.Background(), roleIDs...); err != nil {
			return fmt.Errorf("failed to invalidate role cache: %w", err)
		}
		log.Info("Invalidated cached permission sets for %d roles", len(roleIDs))
	}
	return nil
}

func resyncBaseRoles(db *gorm.DB, staleRoleIDs map[string]struct{}) error {
	var all []Permission
	if err := Active(db).Find(&all).Error; err != nil {
		return fmt.Errorf("failed to reload permissions: %w", err)
	}

	assign := map[string][]Permission{
		RoleNameAdmin:  all,
		RoleNameSeller: filterByModule(all, sellerModules),
		RoleNameClient: filterByModule(all, clientModules),
	}

	for roleName, perms := range assign {
		role, err := GetRoleByName(db, roleName)
		if err != nil {
			return fmt.Errorf("base role %s missing: %w", roleName, err)
		}
		if err := db.Model(role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to resync role %s: %w", roleName, err)
		}
		staleRoleIDs[role.ID] = struct{}{}
		log.Info("Resynced role %s with %d permissions", roleName, len(perms))
	}
	return nil
}

func filterByModule(perms []Permission, modules []string) []Permission {
	allowed := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		allowed[m] = struct{}{}
	}
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if _, ok := allowed[p.Module]; ok {
			out = append(out, p)
		}
	}
	return out
}
