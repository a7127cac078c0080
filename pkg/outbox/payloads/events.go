package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout split across vendors.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	VendorIDs   []uuid.UUID     `json:"vendor_ids"`
	ItemIDs     []uuid.UUID     `json:"item_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderStatusChangedEvent is emitted when an administrator moves the order.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	From           enums.OrderStatus `json:"from"`
	To             enums.OrderStatus `json:"to"`
	CancelledItems []uuid.UUID       `json:"cancelled_items,omitempty"`
}

// OrderItemStatusChangedEvent is emitted for every accepted item transition.
type OrderItemStatusChangedEvent struct {
	OrderID  uuid.UUID        `json:"order_id"`
	ItemID   uuid.UUID        `json:"item_id"`
	VendorID uuid.UUID        `json:"vendor_id"`
	From     enums.ItemStatus `json:"from"`
	To       enums.ItemStatus `json:"to"`
}

// DispatchCodeIssuedEvent hands the courier code of a shipped batch to the
// logistics integration. The code itself is included for the courier.
type DispatchCodeIssuedEvent struct {
	OrderID   uuid.UUID   `json:"order_id"`
	VendorID  uuid.UUID   `json:"vendor_id"`
	ItemIDs   []uuid.UUID `json:"item_ids"`
	Code      string      `json:"code"`
	CreatedAt time.Time   `json:"created_at"`
}

// DocumentGeneratedEvent is emitted once per stored document.
type DocumentGeneratedEvent struct {
	DocumentID uuid.UUID          `json:"document_id"`
	OrderID    uuid.UUID          `json:"order_id"`
	VendorID   *uuid.UUID         `json:"vendor_id,omitempty"`
	Type       enums.DocumentType `json:"type"`
	URL        string             `json:"url"`
}

// RefundRequestedEvent opens a dispute for the vendor and administrators.
type RefundRequestedEvent struct {
	RefundID    uuid.UUID       `json:"refund_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	OrderItemID uuid.UUID       `json:"order_item_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// RefundDecidedEvent closes a dispute.
type RefundDecidedEvent struct {
	RefundID    uuid.UUID          `json:"refund_id"`
	OrderItemID uuid.UUID          `json:"order_item_id"`
	VendorID    uuid.UUID          `json:"vendor_id"`
	Decision    enums.RefundStatus `json:"decision"`
	Amount      decimal.Decimal    `json:"amount"`
}

// RefundMessagePostedEvent notifies the other side of a dispute thread.
type RefundMessagePostedEvent struct {
	RefundID   uuid.UUID        `json:"refund_id"`
	MessageID  uuid.UUID        `json:"message_id"`
	SenderRole enums.SenderRole `json:"sender_role"`
}

// ComplaintEvent covers complaint creation and status moves.
type ComplaintEvent struct {
	ComplaintID uuid.UUID             `json:"complaint_id"`
	OrderID     uuid.UUID             `json:"order_id"`
	Status      enums.ComplaintStatus `json:"status"`
}

// ProductCommissionUpdatedEvent records a catalog commission change. Existing
// order items keep the percent captured at checkout.
type ProductCommissionUpdatedEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	VendorID  uuid.UUID       `json:"vendor_id"`
	Previous  *string         `json:"previous,omitempty"`
	Percent   decimal.Decimal `json:"percent"`
}
