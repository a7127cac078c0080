package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// OrderItem is one vendor line within an order. Commission fields are
// captured when the order is created and never recomputed.
type OrderItem struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID        `gorm:"column:order_id;type:uuid;not null"`
	ProductID             uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	VendorID              uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null"`
	LineNo                int              `gorm:"column:line_no;not null"`
	ProductName           string           `gorm:"column:product_name;not null"`
	Quantity              int              `gorm:"column:quantity;not null"`
	UnitPrice             decimal.Decimal  `gorm:"column:unit_price;type:numeric(14,2);not null"`
	CommissionPercent     decimal.Decimal  `gorm:"column:commission_percent;type:numeric(5,2);not null"`
	CommissionAmount      decimal.Decimal  `gorm:"column:commission_amount;type:numeric(14,2);not null"`
	VendorPayout          decimal.Decimal  `gorm:"column:vendor_payout;type:numeric(14,2);not null"`
	Status                enums.ItemStatus `gorm:"column:status;not null;default:'PENDING'"`
	CommissionLockedAt    *time.Time       `gorm:"column:commission_locked_at"`
	DispatchCode          *string          `gorm:"column:dispatch_code"`
	DispatchCodeCreatedAt *time.Time       `gorm:"column:dispatch_code_created_at"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Subtotal is unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
