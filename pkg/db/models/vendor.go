package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor is a seller on the marketplace. DefaultCommissionPercent applies to
// products that carry no override of their own.
type Vendor struct {
	ID                       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                     string          `gorm:"column:name;not null"`
	GSTIN                    *string         `gorm:"column:gstin"`
	DefaultCommissionPercent decimal.Decimal `gorm:"column:default_commission_percent;type:numeric(5,2);not null"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
