package models

import (
	"time"

	"gorm.io/gorm"
)

// Language uses its code ("vi", "en", ...) as primary key. Languages
// are hard-deleted on admin cleanup, translations cascade.
type Language struct {
	ID        string     `gorm:"primary_key;size:10" json:"id" validate:"required,min=2,max=10"`
	Name      string     `gorm:"not null" json:"name" validate:"required"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
}

type Brand struct {
	Base
	Name        string  `gorm:"not null" json:"name" validate:"required"`
	Logo        string  `json:"logo"`
	CreatedByID *string `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID *string `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string `gorm:"type:uuid" json:"-"`
}

type Category struct {
	Base
	Name             string    `gorm:"not null" json:"name" validate:"required"`
	Logo             string    `json:"logo"`
	ParentCategoryID *string   `gorm:"type:uuid" json:"parentCategoryId,omitempty"`
	ParentCategory   *Category `json:"parentCategory,omitempty"`
	CreatedByID      *string   `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID      *string   `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID      *string   `gorm:"type:uuid" json:"-"`
}

// Product is purchasable only when it is not soft-deleted and
// PublishedAt is non-null and not in the future. CreatedByID is the
// shop (the product-creating seller account).
type Product struct {
	Base
	Name         string               `gorm:"not null" json:"name" validate:"required"`
	BasePrice    float64              `gorm:"not null" json:"basePrice" validate:"min=0"`
	VirtualPrice float64              `gorm:"not null" json:"virtualPrice" validate:"min=0"`
	Images       string               `json:"images"`
	PublishedAt  *time.Time           `gorm:"index" json:"publishedAt,omitempty"`
	BrandID      *string              `gorm:"type:uuid" json:"brandId,omitempty"`
	Brand        *Brand               `json:"brand,omitempty"`
	Categories   []Category           `gorm:"many2many:product_categories" json:"categories,omitempty"`
	Translations []ProductTranslation `gorm:"foreignKey:ProductID" json:"productTranslations,omitempty"`
	SKUs         []SKU                `gorm:"foreignKey:ProductID" json:"skus,omitempty"`
	CreatedByID  string               `gorm:"type:uuid;not null;index" json:"createdById"`
	UpdatedByID  *string              `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID  *string              `gorm:"type:uuid" json:"-"`
}

// IsPublished reports whether the product is visible for purchase at
// the given instant.
func (p *Product) IsPublished(now time.Time) bool {
	return p.DeletedAt == nil && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

type ProductTranslation struct {
	Base
	ProductID   string    `gorm:"type:uuid;not null;index" json:"productId" validate:"required,uuid"`
	Product     *Product  `json:"product,omitempty"`
	LanguageID  string    `gorm:"size:10;not null;index" json:"languageId" validate:"required"`
	Language    *Language `json:"language,omitempty"`
	Name        string    `gorm:"not null" json:"name" validate:"required"`
	Description string    `json:"description"`
	CreatedByID *string   `gorm:"type:uuid" json:"createdById,omitempty"`
	UpdatedByID *string   `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string   `gorm:"type:uuid" json:"-"`
}

// SKU is a purchasable variant of a product with its own stock count
// and price. CreatedByID mirrors the owning product's shop.
type SKU struct {
	Base
	ProductID   string   `gorm:"type:uuid;not null;index" json:"productId" validate:"required,uuid"`
	Product     *Product `json:"product,omitempty"`
	Value       string   `gorm:"not null" json:"value" validate:"required"`
	Price       float64  `gorm:"not null" json:"price" validate:"min=0"`
	Stock       int      `gorm:"not null;default:0" json:"stock" validate:"min=0"`
	Image       string   `json:"image"`
	SignedImage string   `gorm:"-" json:"signedImage,omitempty"` // Virtual field
	CreatedByID string   `gorm:"type:uuid;not null;index" json:"createdById"`
	UpdatedByID *string  `gorm:"type:uuid" json:"updatedById,omitempty"`
	DeletedByID *string  `gorm:"type:uuid" json:"-"`
}

func (s *SKU) AfterFind(tx *gorm.DB) error {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil && s.Image != "" {
		url, err := generator.GetSignedURL(tx.Statement.Context, s.Image, time.Hour)
		if err != nil {
			// Missing objects must not break reads, the raw key stays usable.
			return nil
		}
		s.SignedImage = url
	}
	return nil
}
