package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable listing owned by one vendor.
type Product struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID          uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	Name              string              `gorm:"column:name;not null"`
	SKU               string              `gorm:"column:sku;not null"`
	UnitPrice         decimal.Decimal     `gorm:"column:unit_price;type:numeric(14,2);not null"`
	CommissionPercent decimal.NullDecimal `gorm:"column:commission_percent;type:numeric(5,2)"`
	Active            bool                `gorm:"column:active;not null;default:true"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Vendor *Vendor `gorm:"foreignKey:VendorID;references:ID"`
}
