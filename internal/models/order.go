package models

import (
	"gorm.io/datatypes"
)

// CartItem references a user and a SKU. It is created on add-to-cart
// and hard-deleted when converted into an order, never soft-deleted.
type CartItem struct {
	Base
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_sku" json:"userId"`
	User     *User  `json:"user,omitempty"`
	SKUID    string `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:idx_cart_user_sku" json:"skuId" validate:"required,uuid"`
	SKU      *SKU   `json:"sku,omitempty"`
	Quantity int    `gorm:"not null" json:"quantity" validate:"required,min=1"`
}

// Payment covers one checkout batch: every order created from the same
// create-order call shares a payment row, and the deferred expiry job
// is keyed by its ID.
type Payment struct {
	Base
	Status PaymentStatus `gorm:"not null;default:'PENDING'" json:"status"`
	Orders []Order       `gorm:"foreignKey:PaymentID" json:"orders,omitempty"`
}

// OrderReceiver is denormalized into the order row as JSON.
type OrderReceiver struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type Order struct {
	Base
	UserID      string         `gorm:"type:uuid;not null;index" json:"userId"`
	User        *User          `json:"user,omitempty"`
	ShopID      string         `gorm:"type:uuid;not null;index" json:"shopId"`
	PaymentID   string         `gorm:"type:uuid;not null;index" json:"paymentId"`
	Payment     *Payment       `json:"payment,omitempty"`
	Status      OrderStatus    `gorm:"not null;default:'PENDING_PAYMENT'" json:"status"`
	Receiver    datatypes.JSON `gorm:"type:jsonb" json:"receiver"`
	Items       []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Products    []Product      `gorm:"many2many:order_products" json:"products,omitempty"`
	CreatedByID *string        `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID *string        `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string        `gorm:"type:uuid" json:"-"`
}

// ProductTranslationSnapshot is the shape stored in
// OrderItem.ProductTranslations: a copy of each translation as of the
// instant of purchase.
type ProductTranslationSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LanguageID  string `json:"languageId"`
}

// OrderItem snapshots product and SKU data at purchase time so later
// catalog edits cannot rewrite order history.
type OrderItem struct {
	Base
	OrderID             string         `gorm:"type:uuid;not null;index" json:"orderId"`
	ProductID           string         `gorm:"type:uuid;not null" json:"productId"`
	ProductName         string         `gorm:"not null" json:"productName"`
	SKUID               string         `gorm:"type:uuid;not null" json:"skuId"`
	SKUPrice            float64        `gorm:"not null" json:"skuPrice"`
	SKUValue            string         `gorm:"not null" json:"skuValue"`
	Image               string         `json:"image"`
	Quantity            int            `gorm:"not null" json:"quantity"`
	ProductTranslations datatypes.JSON `gorm:"type:jsonb" json:"productTranslations"`
}

// PaymentTransaction is the raw audit row for every webhook call the
// payment gateway delivers, stored before any interpretation.
type PaymentTransaction struct {
	Base
	Gateway            string  `json:"gateway"`
	AccountNumber      string  `json:"accountNumber"`
	AmountIn           float64 `json:"amountIn"`
	AmountOut          float64 `json:"amountOut"`
	TransactionContent string  `json:"transactionContent"`
	ReferenceNumber    string  `json:"referenceNumber"`
	Code               string  `json:"code"`
}
