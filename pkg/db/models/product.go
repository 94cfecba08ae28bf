package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/playpalm/playpalm-backend/pkg/enums"
)

// Product represents the canonical catalog listing.
type Product struct {
	ID             int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string            `gorm:"column:name;not null"`
	SKU            *string           `gorm:"column:sku"`
	BrandID        *int64            `gorm:"column:brand_id"`
	Brand          *Brand            `gorm:"foreignKey:BrandID"`
	CategoryID     *int64            `gorm:"column:category_id"`
	Category       *Category         `gorm:"foreignKey:CategoryID"`
	ManufacturerID *int64            `gorm:"column:manufacturer_id"`
	Manufacturer   *Manufacturer     `gorm:"foreignKey:ManufacturerID"`
	Edition        *string           `gorm:"column:edition"`
	Storage        *string           `gorm:"column:storage"`
	Description    *string           `gorm:"column:description"`
	Price          decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Stock          int               `gorm:"column:stock;not null;default:0"`
	Status         enums.StockStatus `gorm:"column:status;not null"`
	Tags           pq.StringArray    `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	ReleaseDate    *string           `gorm:"column:release_date"`
	Image          *string           `gorm:"column:image"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
