package models

// Review is a verified-purchase review: it always references the
// delivered order the product was bought in, is unique per
// (order, product), and may be edited exactly once after creation.
type Review struct {
	Base
	Content     string   `gorm:"not null" json:"content" validate:"required"`
	Rating      int      `gorm:"not null" json:"rating" validate:"required,min=1,max=5"`
	ProductID   string   `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_order_product" json:"productId"`
	Product     *Product `json:"product,omitempty"`
	UserID      string   `gorm:"type:uuid;not null;index" json:"userId"`
	User        *User    `json:"user,omitempty"`
	OrderID     string   `gorm:"type:uuid;not null;uniqueIndex:idx_review_order_product" json:"orderId"`
	Order       *Order   `json:"order,omitempty"`
	UpdateCount int      `gorm:"not null;default:0" json:"updateCount"`
}
