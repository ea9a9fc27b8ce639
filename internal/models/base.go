package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-" validate:"omitempty"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// Active scopes a query to rows that have not been soft-deleted. All
// repository queries go through this scope so no query can forget the
// filter. Hard deletes are reserved for administrative cleanup paths.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

// SoftDelete stamps deleted_at (and the deleting actor where the model
// carries audit columns) instead of removing the row.
func SoftDelete(db *gorm.DB, model interface{}, id, deletedByID string) *gorm.DB {
	now := time.Now()
	return db.Model(model).Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"deleted_at": now, "deleted_by_id": deletedByID})
}

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "PENDING_PAYMENT"
	OrderStatusPendingPickup   OrderStatus = "PENDING_PICKUP"
	OrderStatusPendingDelivery OrderStatus = "PENDING_DELIVERY"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusReturned        OrderStatus = "RETURNED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusBlocked  UserStatus = "BLOCKED"
)

type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodDelete  HTTPMethod = "DELETE"
	MethodPatch   HTTPMethod = "PATCH"
	MethodOptions HTTPMethod = "OPTIONS"
	MethodHead    HTTPMethod = "HEAD"
)

// Base role names. These three roles are protected: they cannot be
// renamed or deleted through the generic role mutation path.
const (
	RoleNameAdmin  = "ADMIN"
	RoleNameClient = "CLIENT"
	RoleNameSeller = "SELLER"
)

// IsBaseRole reports whether name is one of the three protected roles.
func IsBaseRole(name string) bool {
	switch name {
	case RoleNameAdmin, RoleNameClient, RoleNameSeller:
		return true
	default:
		return false
	}
}
