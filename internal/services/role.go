package services

import (
	"context"
	"errors"

	"gomall/internal/cache"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"gorm.io/gorm"
)

// RoleService mutates roles and their permission assignments. Every
// mutation invalidates the role's cache entry before returning, so a
// caller that sees success is guaranteed the next authorization check
// reflects the change.
type RoleService struct {
	db    *gorm.DB
	cache cache.RolePermissionCache
	log   *logger.Logger
}

func NewRoleService(db *gorm.DB, roleCache cache.RolePermissionCache) *RoleService {
	return &RoleService{
		db:    db,
		cache: roleCache,
		log:   logger.New("ROLE_SERVICE"),
	}
}

type RoleInput struct {
	Name          string
	Description   string
	IsActive      *bool
	PermissionIDs []string
}

func (s *RoleService) Create(ctx context.Context, input RoleInput, createdByID string) (*models.Role, error) {
	var count int64
	err := models.Active(s.db.WithContext(ctx).Model(&models.Role{})).
		Where("name = ?", input.Name).Count(&count).Error
	if err != nil {
		return nil, s.log.Error("failed to check role name", err)
	}
	if count > 0 {
		return nil, errs.ErrRoleAlreadyExists
	}

	role := models.Role{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
		CreatedByID: &createdByID,
	}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		return s.assignPermissions(tx, &role, input.PermissionIDs)
	})
	if err != nil {
		return nil, s.log.Error("failed to create role", err)
	}
	return &role, nil
}

// Update changes role fields and, when PermissionIDs is non-nil,
// replaces the permission assignment. Base roles only accept
// permission and activity changes, never a rename.
func (s *RoleService) Update(ctx context.Context, roleID string, input RoleInput, updatedByID string) (*models.Role, error) {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if models.IsBaseRole(role.Name) && input.Name != "" && input.Name != role.Name {
		return nil, errs.ErrProhibitedOnBaseRole
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_by_id": updatedByID}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Description != "" {
			updates["description"] = input.Description
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if err := tx.Model(role).Updates(updates).Error; err != nil {
			return err
		}
		if input.PermissionIDs != nil {
			if err := s.assignPermissions(tx, role, input.PermissionIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.log.Error("failed to update role", err)
	}

	// Invalidate before acknowledging, not best-effort after.
	if err := s.cache.Invalidate(ctx, roleID); err != nil {
		return nil, s.log.Error("failed to invalidate role cache", err)
	}
	return s.Get(ctx, roleID)
}

func (s *RoleService) Delete(ctx context.Context, roleID, deletedByID string) error {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return err
	}
	if models.IsBaseRole(role.Name) {
		return errs.ErrProhibitedOnBaseRole
	}

	result := models.SoftDelete(s.db.WithContext(ctx), &models.Role{}, roleID, deletedByID)
	if result.Error != nil {
		return s.log.Error("failed to delete role", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFoundRecord
	}

	if err := s.cache.Invalidate(ctx, roleID); err != nil {
		return s.log.Error("failed to invalidate role cache", err)
	}
	return nil
}

func (s *RoleService) Get(ctx context.Context, roleID string) (*models.Role, error) {
	var role models.Role
	err := models.Active(s.db.WithContext(ctx)).
		Preload("Permissions", "deleted_at IS NULL").
		First(&role, "id = ?", roleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundRecord
		}
		return nil, s.log.Error("failed to load role", err)
	}
	return &role, nil
}

func (s *RoleService) List(ctx context.Context, page, limit int) ([]models.Role, int64, error) {
	var total int64
	query := models.Active(s.db.WithContext(ctx).Model(&models.Role{}))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, s.log.Error("failed to count roles", err)
	}

	var roles []models.Role
	listQuery := models.Active(s.db.WithContext(ctx)).
		Preload("Permissions", "deleted_at IS NULL").
		Order("created_at ASC")
	if page > 0 && limit > 0 {
		listQuery = listQuery.Offset((page - 1) * limit).Limit(limit)
	}
	if err := listQuery.Find(&roles).Error; err != nil {
		return nil, 0, s.log.Error("failed to list roles", err)
	}
	return roles, total, nil
}

func (s *RoleService) assignPermissions(tx *gorm.DB, role *models.Role, permissionIDs []string) error {
	if permissionIDs == nil {
		return nil
	}
	var permissions []models.Permission
	if len(permissionIDs) > 0 {
		err := models.Active(tx).Where("id IN ?", permissionIDs).Find(&permissions).Error
		if err != nil {
			return err
		}
		if len(permissions) != len(permissionIDs) {
			return errs.ErrNotFoundRecord
		}
	}
	return tx.Model(role).Association("Permissions").Replace(permissions)
}
