package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog entry.
// SKU is nil when the product has no stock keeping unit; the unique index on
// sku only applies to non-NULL values. NameFolded is the case-folded name used
// by name search and is maintained by BeforeSave.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_products_name"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0"`
	SKU         *string   `json:"sku,omitempty" gorm:"type:varchar(100);uniqueIndex:idx_products_sku"`
	Category    string    `json:"category,omitempty" gorm:"type:varchar(100);index:idx_products_category"`
	NameFolded  string    `json:"-" gorm:"type:text;not null;default:'';index:idx_products_name_folded"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SKUValue returns the SKU, or "" when the product has none.
func (p *Product) SKUValue() string {
	if p.SKU == nil {
		return ""
	}
	return *p.SKU
}

// HasSKU reports whether the product carries a non-empty SKU.
func (p *Product) HasSKU() bool {
	return p.SKUValue() != ""
}

// SetSKU stores sku, mapping the empty string to no SKU.
func (p *Product) SetSKU(sku string) {
	if sku == "" {
		p.SKU = nil
		return
	}
	p.SKU = &sku
}

// FoldName lowercases a name or search fragment with Unicode case mapping.
func FoldName(name string) string {
	return strings.ToLower(name)
}

// BeforeSave keeps empty SKUs out of the unique index and refreshes NameFolded.
func (p *Product) BeforeSave(_ *gorm.DB) error {
	p.NameFolded = FoldName(p.Name)
	if p.SKU != nil && *p.SKU == "" {
		p.SKU = nil
	}
	return nil
}
