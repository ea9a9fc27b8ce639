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

// PermissionService mutates permission records. A permission may be
// attached to many roles, so every mutation invalidates the cache
// entry of each affected role before returning.
type PermissionService struct {
	db    *gorm.DB
	cache cache.RolePermissionCache
	log   *logger.Logger
}

func NewPermissionService(db *gorm.DB, roleCache cache.RolePermissionCache) *PermissionService {
	return &PermissionService{
		db:    db,
		cache: roleCache,
		log:   logger.New("PERMISSION_SERVICE"),
	}
}

type PermissionInput struct {
	Name        string
	Description string
	Path        string
	Method      models.HTTPMethod
	Module      string
}

func (s *PermissionService) Create(ctx context.Context, input PermissionInput, createdByID string) (*models.Permission, error) {
	var count int64
	err := models.Active(s.db.WithContext(ctx).Model(&models.Permission{})).
		Where("path = ? AND method = ?", input.Path, input.Method).
		Count(&count).Error
	if err != nil {
		return nil, s.log.Error("failed to check permission route", err)
	}
	if count > 0 {
		return nil, errs.ErrPermissionAlreadyExists
	}

	permission := models.Permission{
		Name:        input.Name,
		Description: input.Description,
		Path:        input.Path,
		Method:      input.Method,
		Module:      input.Module,
		CreatedByID: &createdByID,
	}
	if err := s.db.WithContext(ctx).Create(&permission).Error; err != nil {
		return nil, s.log.Error("failed to create permission", err)
	}
	return &permission, nil
}

func (s *PermissionService) Update(ctx context.Context, permissionID string, input PermissionInput, updatedByID string) (*models.Permission, error) {
	permission, err := s.Get(ctx, permissionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_by_id": updatedByID}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.Path != "" {
		updates["path"] = input.Path
	}
	if input.Method != "" {
		updates["method"] = input.Method
	}
	if input.Module != "" {
		updates["module"] = input.Module
	}
	if err := s.db.WithContext(ctx).Model(permission).Updates(updates).Error; err != nil {
		return nil, s.log.Error("failed to update permission", err)
	}

	if err := s.invalidateRoles(ctx, permissionID); err != nil {
		return nil, err
	}
	return s.Get(ctx, permissionID)
}

func (s *PermissionService) Delete(ctx context.Context, permissionID, deletedByID string) error {
	result := models.SoftDelete(s.db.WithContext(ctx), &models.Permission{}, permissionID, deletedByID)
	if result.Error != nil {
		return s.log.Error("failed to delete permission", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFoundRecord
	}
	return s.invalidateRoles(ctx, permissionID)
}

func (s *PermissionService) Get(ctx context.Context, permissionID string) (*models.Permission, error) {
	var permission models.Permission
	err := models.Active(s.db.WithContext(ctx)).First(&permission, "id = ?", permissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundRecord
		}
		return nil, s.log.Error("failed to load permission", err)
	}
	return &permission, nil
}

func (s *PermissionService) List(ctx context.Context, page, limit int, module string) ([]models.Permission, int64, error) {
	query := models.Active(s.db.WithContext(ctx).Model(&models.Permission{}))
	if module != "" {
		query = query.Where("module = ?", module)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, s.log.Error("failed to count permissions", err)
	}

	var permissions []models.Permission
	listQuery := query.Order("module ASC, path ASC")
	if page > 0 && limit > 0 {
		listQuery = listQuery.Offset((page - 1) * limit).Limit(limit)
	}
	if err := listQuery.Find(&permissions).Error; err != nil {
		return nil, 0, s.log.Error("failed to list permissions", err)
	}
	return permissions, total, nil
}

// invalidateRoles drops the cache entry of every role holding the
// permission, as part of the mutation's own success path.
func (s *PermissionService) invalidateRoles(ctx context.Context, permissionID string) error {
	var roleIDs []string
	err := s.db.WithContext(ctx).Table("role_permissions").
		Where("permission_id = ?", permissionID).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return s.log.Error("failed to resolve roles for permission", err)
	}
	if err := s.cache.Invalidate(ctx, roleIDs...); err != nil {
		return s.log.Error("failed to invalidate role cache", err)
	}
	return nil
}
