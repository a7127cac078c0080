package refunds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

type MessageDTO struct {
	ID         uuid.UUID        `json:"id"`
	SenderRole enums.SenderRole `json:"sender_role"`
	SenderID   *uuid.UUID       `json:"sender_id,omitempty"`
	Text       string           `json:"text"`
	CreatedAt  time.Time        `json:"created_at"`
}

// RefundDTO is a refund request with its dispute thread in posting order.
type RefundDTO struct {
	ID               uuid.UUID          `json:"id"`
	OrderID          uuid.UUID          `json:"order_id"`
	OrderItemID      uuid.UUID          `json:"order_item_id"`
	CustomerID       uuid.UUID          `json:"customer_id"`
	VendorID         uuid.UUID          `json:"vendor_id"`
	Reason           string             `json:"reason"`
	Amount           decimal.Decimal    `json:"amount"`
	Quantity         int                `json:"quantity"`
	Status           enums.RefundStatus `json:"status"`
	EvidenceURLs     []string           `json:"evidence_urls"`
	BillURL          *string            `json:"bill_url,omitempty"`
	TransportSlipURL *string            `json:"transport_slip_url,omitempty"`
	AdminNote        *string            `json:"admin_note,omitempty"`
	DecidedAt        *time.Time         `json:"decided_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	Messages         []MessageDTO       `json:"messages"`
}

func newRefundDTO(refund models.RefundRequest, msgs []models.RefundMessage) *RefundDTO {
	evidence := []string(refund.EvidenceURLs)
	if evidence == nil {
		evidence = []string{}
	}
	dto := &RefundDTO{
		ID:               refund.ID,
		OrderID:          refund.OrderID,
		OrderItemID:      refund.OrderItemID,
		CustomerID:       refund.CustomerID,
		VendorID:         refund.VendorID,
		Reason:           refund.Reason,
		Amount:           refund.Amount,
		Quantity:         refund.Quantity,
		Status:           refund.Status,
		EvidenceURLs:     evidence,
		BillURL:          refund.BillURL,
		TransportSlipURL: refund.TransportSlipURL,
		AdminNote:        refund.AdminNote,
		DecidedAt:        refund.DecidedAt,
		CreatedAt:        refund.CreatedAt,
		Messages:         make([]MessageDTO, 0, len(msgs)),
	}
	for _, msg := range msgs {
		dto.Messages = append(dto.Messages, newMessageDTO(msg))
	}
	return dto
}

func newMessageDTO(msg models.RefundMessage) MessageDTO {
	return MessageDTO{
		ID:         msg.ID,
		SenderRole: msg.SenderRole,
		SenderID:   msg.SenderID,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	}
}
