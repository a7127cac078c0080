package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/commission"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

// Service records per-item commission bookkeeping. Writers take the caller's
// transaction so an entry commits together with the status change that
// produced it.
type Service interface {
	AccrueCommission(ctx context.Context, tx *gorm.DB, item models.OrderItem) (*models.LedgerEvent, error)
	RecordRefundApproval(ctx context.Context, tx *gorm.DB, refund models.RefundRequest, item models.OrderItem) (*models.LedgerEvent, error)
	VendorSummary(ctx context.Context, vendorID uuid.UUID) (*VendorSummary, error)
}

type service struct {
	repo Repository
}

// VendorSummary is the settlement statement of one vendor.
type VendorSummary struct {
	VendorID         uuid.UUID       `json:"vendor_id"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VendorPayout     decimal.Decimal `json:"vendor_payout"`
	Accruals         int             `json:"accruals"`
	Refunds          int             `json:"refunds"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// AccrueCommission books the frozen commission split of a delivered item.
// A second call for the same item is a no-op returning nil.
func (s *service) AccrueCommission(ctx context.Context, tx *gorm.DB, item models.OrderItem) (*models.LedgerEvent, error) {
	if item.ID == uuid.Nil || item.OrderID == uuid.Nil || item.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item is incomplete")
	}
	repo := s.repo.WithTx(tx)
	exists, err := repo.HasEntry(ctx, item.ID, enums.LedgerEventTypeCommissionAccrued, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ledger accrual")
	}
	if exists {
		return nil, nil
	}

	metadata, err := json.Marshal(map[string]any{
		"commission_percent": item.CommissionPercent.String(),
		"quantity":           item.Quantity,
		"unit_price":         item.UnitPrice.String(),
	})
	if err != nil {
		return nil, err
	}
	event := &models.LedgerEvent{
		ID:               uuid.New(),
		OrderID:          item.OrderID,
		OrderItemID:      item.ID,
		VendorID:         item.VendorID,
		Type:             enums.LedgerEventTypeCommissionAccrued,
		GrossAmount:      item.Subtotal(),
		CommissionAmount: item.CommissionAmount,
		VendorPayout:     item.VendorPayout,
		Metadata:         metadata,
	}
	if err := repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record commission accrual")
	}
	return event, nil
}

// RecordRefundApproval books the reversal for an approved refund. The
// commission reversed is proportional to the refunded quantity and the
// payout adjustment absorbs the rounding remainder, so gross = commission +
// payout holds for every entry.
func (s *service) RecordRefundApproval(ctx context.Context, tx *gorm.DB, refund models.RefundRequest, item models.OrderItem) (*models.LedgerEvent, error) {
	if refund.OrderItemID != item.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund does not belong to item")
	}
	if item.Quantity <= 0 || refund.Quantity <= 0 || refund.Quantity > item.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRange, "refund quantity out of range").
			WithDetails(map[string]any{"quantity": refund.Quantity, "item_quantity": item.Quantity})
	}
	repo := s.repo.WithTx(tx)
	refundID := refund.ID
	exists, err := repo.HasEntry(ctx, item.ID, enums.LedgerEventTypeRefundApproved, &refundID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ledger refund")
	}
	if exists {
		return nil, nil
	}

	reversed := ReversedCommission(item, refund.Quantity)
	gross := refund.Amount.Neg()
	metadata, err := json.Marshal(map[string]any{
		"refunded_quantity": refund.Quantity,
		"item_quantity":     item.Quantity,
	})
	if err != nil {
		return nil, err
	}
	event := &models.LedgerEvent{
		ID:               uuid.New(),
		OrderID:          item.OrderID,
		OrderItemID:      item.ID,
		VendorID:         item.VendorID,
		RefundID:         &refundID,
		Type:             enums.LedgerEventTypeRefundApproved,
		GrossAmount:      gross,
		CommissionAmount: reversed.Neg(),
		VendorPayout:     gross.Add(reversed),
		Metadata:         metadata,
	}
	if err := repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund approval")
	}
	return event, nil
}

// ReversedCommission is the share of the item's frozen commission that
// belongs to quantity refunded units.
func ReversedCommission(item models.OrderItem, quantity int) decimal.Decimal {
	if quantity >= item.Quantity {
		return item.CommissionAmount
	}
	share := item.CommissionAmount.
		Mul(decimal.NewFromInt(int64(quantity))).
		Div(decimal.NewFromInt(int64(item.Quantity)))
	return commission.Round2(share)
}

func (s *service) VendorSummary(ctx context.Context, vendorID uuid.UUID) (*VendorSummary, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	events, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger events")
	}
	summary := &VendorSummary{
		VendorID:         vendorID,
		GrossAmount:      decimal.Zero,
		CommissionAmount: decimal.Zero,
		VendorPayout:     decimal.Zero,
	}
	for _, event := range events {
		summary.GrossAmount = summary.GrossAmount.Add(event.GrossAmount)
		summary.CommissionAmount = summary.CommissionAmount.Add(event.CommissionAmount)
		summary.VendorPayout = summary.VendorPayout.Add(event.VendorPayout)
		switch event.Type {
		case enums.LedgerEventTypeCommissionAccrued:
			summary.Accruals++
		case enums.LedgerEventTypeRefundApproved:
			summary.Refunds++
		}
	}
	return summary, nil
}
