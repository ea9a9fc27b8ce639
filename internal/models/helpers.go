package models

import (
	"gorm.io/gorm"
)

// GetRoleByName retrieves an active role by its name
func GetRoleByName(db *gorm.DB, name string) (*Role, error) {
	role := &Role{}
	if err := Active(db).Where("name = ?", name).First(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// GetUserByEmail retrieves an active user with their role
func GetUserByEmail(db *gorm.DB, email string) (*User, error) {
	user := &User{}
	if err := Active(db).Preload("Role").Where("email = ?", email).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetActiveRoleWithPermissions loads an active, non-deleted role with
// its non-deleted permissions. This is the store-side fallback behind
// the role-permission cache.
func GetActiveRoleWithPermissions(db *gorm.DB, roleID string) (*Role, error) {
	role := &Role{}
	err := Active(db).
		Preload("Permissions", "deleted_at IS NULL").
		Where("id = ? AND is_active = ?", roleID, true).
		First(role).Error
	if err != nil {
		return nil, err
	}
	return role, nil
}
