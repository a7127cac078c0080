package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// Order is one customer checkout. AdminStatus is the coarse status set by
// administrators; the status reported to clients is derived from the items.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;not null"`
	AdminStatus        enums.OrderStatus   `gorm:"column:admin_status;not null;default:'PENDING'"`
	ExpectedDeliveryAt *time.Time          `gorm:"column:expected_delivery_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}
