package models

import (
	"fmt"
	"time"
)

type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string     `gorm:"not null" json:"-"`
	Name        string     `gorm:"not null" json:"name" validate:"required,min=2"`
	Phone       string     `json:"phone"`
	Avatar      string     `json:"avatar,omitempty"`
	Status      UserStatus `gorm:"not null;default:'ACTIVE'" json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE BLOCKED"`
	RoleID      string     `gorm:"type:uuid;not null" json:"roleId"`
	Role        *Role      `json:"role,omitempty"`
	CreatedByID *string    `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID *string    `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string    `gorm:"type:uuid" json:"-"`
}

type Role struct {
	Base
	Name        string       `gorm:"not null;index" json:"name" validate:"required,min=2"`
	Description string       `json:"description"`
	IsActive    bool         `gorm:"not null;default:true" json:"isActive"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
	CreatedByID *string      `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID *string      `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string      `gorm:"type:uuid" json:"-"`
}

// Permission corresponds 1:1 to a server route: the (path, method) pair
// is unique among active rows and is what the authorization guard
// matches against.
type Permission struct {
	Base
	Name        string     `gorm:"not null" json:"name" validate:"required"`
	Description string     `json:"description"`
	Path        string     `gorm:"not null;index:idx_permission_route" json:"path" validate:"required"`
	Method      HTTPMethod `gorm:"not null;index:idx_permission_route" json:"method" validate:"required,http_method"`
	Module      string     `gorm:"not null;default:''" json:"module"`
	Roles       []Role     `gorm:"many2many:role_permissions" json:"roles,omitempty"`
	CreatedByID *string    `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID *string    `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string    `gorm:"type:uuid" json:"-"`
}

// Key returns the lookup key used by the role-permission cache and the
// authorization guard: "{path}:{method}".
func (p Permission) Key() string {
	return PermissionKey(p.Path, string(p.Method))
}

func PermissionKey(path, method string) string {
	return fmt.Sprintf("%s:%s", path, method)
}

// RefreshToken rows are rotated on every refresh: the old row is
// stamped UsedAt and a new one is issued. A token that arrives with
// UsedAt already set was stolen or replayed.
type RefreshToken struct {
	Base
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User      `json:"user,omitempty"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"-"`
}
