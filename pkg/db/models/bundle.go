package models

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a curated multi-product offer.
type Bundle struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	// No gorm-level default: a default tag makes GORM drop the zero value
	// on insert, so Active:false would silently persist as true. The
	// column default lives in the create_bundles migration.
	Active    bool            `gorm:"column:active;not null"`
	Products  []BundleProduct `gorm:"foreignKey:BundleID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Bundle) TableName() string { return "bundles" }

// BundleProduct links a product into a bundle.
type BundleProduct struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BundleID  uuid.UUID `gorm:"column:bundle_id;type:uuid;not null;index:idx_bundle_products_bundle"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_bundle_products_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (BundleProduct) TableName() string { return "bundle_products" }
