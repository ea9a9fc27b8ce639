package models

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	console "gomall/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

var baseRoles = []Role{
	{Name: RoleNameAdmin, Description: "Full access to every route", IsActive: true},
	{Name: RoleNameClient, Description: "Buyer account", IsActive: true},
	{Name: RoleNameSeller, Description: "Shop account", IsActive: true},
}

// EnsureBaseRoles creates the three protected roles if they are
// missing. Running it repeatedly is a no-op.
func EnsureBaseRoles(db *gorm.DB) error {
	for _, role := range baseRoles {
		existing := Role{}
		err := Active(db).Where("name = ?", role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up role %s: %w", role.Name, err)
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role %s: %w", role.Name, err)
		}
		log.Success("Created base role %s", role.Name)
	}
	return nil
}

// CreateAdminFromEnv bootstraps the first admin account from
// ADMIN_EMAIL / ADMIN_PASSWORD / ADMIN_NAME.
func CreateAdminFromEnv(db *gorm.DB) error {
	adminRole, err := GetRoleByName(db, RoleNameAdmin)
	if err != nil {
		return fmt.Errorf("admin role missing: %w", err)
	}

	var count int64
	db.Model(&User{}).Where("role_id = ? AND deleted_at IS NULL", adminRole.ID).Count(&count)
	if count > 0 {
		return nil
	}

	email, ok := os.LookupEnv("ADMIN_EMAIL")
	if !ok {
		return fmt.Errorf("ADMIN_EMAIL not set")
	}

	password, ok := os.LookupEnv("ADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("ADMIN_PASSWORD not set")
	}

	name, ok := os.LookupEnv("ADMIN_NAME")
	if !ok {
		return fmt.Errorf("ADMIN_NAME not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	user := User{
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
		Status:   UserStatusActive,
		RoleID:   adminRole.ID,
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %v", err)
	}

	log.Success("Created admin user %s", email)
	return nil
}
