package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// LedgerEvent records an immutable commission bookkeeping entry for one
// order item. Refund entries carry negative amounts.
type LedgerEvent struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	OrderItemID      uuid.UUID             `gorm:"column:order_item_id;type:uuid;not null"`
	VendorID         uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null"`
	RefundID         *uuid.UUID            `gorm:"column:refund_id;type:uuid"`
	Type             enums.LedgerEventType `gorm:"column:type;not null"`
	GrossAmount      decimal.Decimal       `gorm:"column:gross_amount;type:numeric(14,2);not null"`
	CommissionAmount decimal.Decimal       `gorm:"column:commission_amount;type:numeric(14,2);not null"`
	VendorPayout     decimal.Decimal       `gorm:"column:vendor_payout;type:numeric(14,2);not null"`
	Metadata         json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}
