package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/vendorhub-backend/pkg/db/types"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// RefundRequest is a dispute over exactly one delivered order item.
type RefundRequest struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID      uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null"`
	OrderID          uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	CustomerID       uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	VendorID         uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null"`
	Reason           string             `gorm:"column:reason;not null"`
	Amount           decimal.Decimal    `gorm:"column:amount;type:numeric(14,2);not null"`
	Quantity         int                `gorm:"column:quantity;not null"`
	Status           enums.RefundStatus `gorm:"column:status;not null;default:'PENDING'"`
	EvidenceURLs     dbtypes.StringList `gorm:"column:evidence_urls;type:jsonb;not null"`
	BillURL          *string            `gorm:"column:bill_url"`
	TransportSlipURL *string            `gorm:"column:transport_slip_url"`
	AdminNote        *string            `gorm:"column:admin_note"`
	DecidedAt        *time.Time         `gorm:"column:decided_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// RefundMessage is one append-only turn in a refund dispute thread.
type RefundMessage struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RefundID   uuid.UUID        `gorm:"column:refund_id;type:uuid;not null"`
	SenderRole enums.SenderRole `gorm:"column:sender_role;not null"`
	SenderID   *uuid.UUID       `gorm:"column:sender_id;type:uuid"`
	Text       string           `gorm:"column:text;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}
