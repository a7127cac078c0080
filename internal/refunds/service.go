package refunds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/vendorhub-backend/pkg/db/types"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SettlementLedger books the commission reversal of an approved refund.
type SettlementLedger interface {
	RecordRefundApproval(ctx context.Context, tx *gorm.DB, refund models.RefundRequest, item models.OrderItem) (*models.LedgerEvent, error)
}

// Service runs refund claims from request through decision. The order item
// status is never touched here.
type Service interface {
	RequestRefund(ctx context.Context, input RequestRefundInput) (*RefundDTO, error)
	Decide(ctx context.Context, input DecideInput) (*RefundDTO, error)
	PostMessage(ctx context.Context, input PostMessageInput) (*MessageDTO, error)
	Get(ctx context.Context, refundID uuid.UUID, viewer auth.Actor) (*RefundDTO, error)
}

type RequestRefundInput struct {
	OrderItemID      uuid.UUID
	CustomerID       uuid.UUID
	Reason           string
	Amount           decimal.Decimal
	EvidenceURLs     []string
	BillURL          *string
	TransportSlipURL *string
	Actor            auth.Actor
}

type DecideInput struct {
	RefundID uuid.UUID
	Decision enums.RefundStatus
	Note     *string
	Actor    auth.Actor
}

type PostMessageInput struct {
	RefundID   uuid.UUID
	SenderRole enums.SenderRole
	Text       string
	Actor      auth.Actor
}

type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Ledger     SettlementLedger
	Metrics    *metrics.Fulfillment
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	ledger  SettlementLedger
	metrics *metrics.Fulfillment
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("settlement ledger required")
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		outbox:  params.Outbox,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// RefundQuantity returns k when amount equals unitPrice times an integer k in
// [1, quantity].
func RefundQuantity(amount, unitPrice decimal.Decimal, quantity int) (int, bool) {
	if !amount.IsPositive() || !unitPrice.IsPositive() || quantity <= 0 {
		return 0, false
	}
	units := amount.Div(unitPrice)
	if !units.Equal(units.Truncate(0)) {
		return 0, false
	}
	k := units.IntPart()
	if k < 1 || k > int64(quantity) {
		return 0, false
	}
	if !unitPrice.Mul(decimal.NewFromInt(k)).Equal(amount) {
		return 0, false
	}
	return int(k), true
}

func (s *service) RequestRefund(ctx context.Context, input RequestRefundInput) (*RefundDTO, error) {
	if input.OrderItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id is required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	customerID := input.CustomerID
	if input.Actor.IsCustomer() {
		if customerID != uuid.Nil && customerID != input.Actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers file refunds for themselves")
		}
		customerID = input.Actor.ID
	} else if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers request refunds")
	}

	var created *models.RefundRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item, err := txRepo.FindItem(ctx, input.OrderItemID)
		if err != nil {
			return repo.MapError(err, "order item")
		}
		order, err := txRepo.FindOrder(ctx, item.OrderID)
		if err != nil {
			return repo.MapError(err, "order")
		}
		if order.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		if item.Status != enums.ItemStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeItemNotDelivered, "refunds need a delivered item").
				WithDetails(map[string]any{"status": item.Status})
		}
		quantity, ok := RefundQuantity(input.Amount, item.UnitPrice, item.Quantity)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount must be the unit price times a refunded quantity").
				WithDetails(map[string]any{
					"amount":     input.Amount,
					"unit_price": item.UnitPrice,
					"quantity":   item.Quantity,
				})
		}
		open, err := txRepo.HasOpenRefund(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open refunds")
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeConflict, "item already has an open refund")
		}

		refund := &models.RefundRequest{
			ID:               uuid.New(),
			OrderItemID:      item.ID,
			OrderID:          item.OrderID,
			CustomerID:       customerID,
			VendorID:         item.VendorID,
			Reason:           reason,
			Amount:           input.Amount,
			Quantity:         quantity,
			Status:           enums.RefundStatusPending,
			EvidenceURLs:     dbtypes.StringList(cleanURLs(input.EvidenceURLs)),
			BillURL:          input.BillURL,
			TransportSlipURL: input.TransportSlipURL,
		}
		if err := txRepo.CreateRefund(ctx, refund); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "item already has an open refund")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
		}
		created = refund
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundRequested,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.RefundRequestedEvent{
				RefundID:    refund.ID,
				OrderID:     refund.OrderID,
				OrderItemID: refund.OrderItemID,
				VendorID:    refund.VendorID,
				Amount:      refund.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return newRefundDTO(*created, nil), nil
}

func (s *service) Decide(ctx context.Context, input DecideInput) (*RefundDTO, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators decide refunds")
	}
	if !input.Decision.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be APPROVED or REJECTED")
	}
	note := trimmedPtr(input.Note)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		decidedAt := s.now()
		ok, err := txRepo.Decide(ctx, input.RefundID, input.Decision, note, decidedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide refund")
		}
		refund, err := txRepo.FindRefund(ctx, input.RefundID)
		if err != nil {
			return repo.MapError(err, "refund")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeAlreadyDecided, "refund already decided").
				WithDetails(map[string]any{"status": refund.Status})
		}
		if input.Decision == enums.RefundStatusApproved {
			item, err := txRepo.FindItem(ctx, refund.OrderItemID)
			if err != nil {
				return repo.MapError(err, "order item")
			}
			if _, err := s.ledger.RecordRefundApproval(ctx, tx, *refund, *item); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundDecided,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.RefundDecidedEvent{
				RefundID:    refund.ID,
				OrderItemID: refund.OrderItemID,
				VendorID:    refund.VendorID,
				Decision:    input.Decision,
				Amount:      refund.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RefundDecision(string(input.Decision))
	return s.Get(ctx, input.RefundID, input.Actor)
}

// PostMessage appends to the dispute thread whatever the refund status.
func (s *service) PostMessage(ctx context.Context, input PostMessageInput) (*MessageDTO, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyMessage, "message text is required")
	}
	callerRole := senderRoleOf(input.Actor)
	if callerRole == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators and vendors post to refund threads")
	}
	role := input.SenderRole
	if role == "" {
		role = callerRole
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender role must be ADMIN or VENDOR")
	}
	if role != callerRole {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sender role does not match caller")
	}

	var msg *models.RefundMessage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		refund, err := txRepo.FindRefund(ctx, input.RefundID)
		if err != nil {
			return repo.MapError(err, "refund")
		}
		if input.Actor.IsVendor() && !input.Actor.OwnsVendor(refund.VendorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "refund belongs to another vendor")
		}
		senderID := input.Actor.ID
		msg = &models.RefundMessage{
			ID:         uuid.New(),
			RefundID:   refund.ID,
			SenderRole: role,
			SenderID:   &senderID,
			Text:       text,
			CreatedAt:  s.now(),
		}
		if err := txRepo.InsertMessage(ctx, msg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "post refund message")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundMessagePosted,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.RefundMessagePostedEvent{
				RefundID:   refund.ID,
				MessageID:  msg.ID,
				SenderRole: role,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	dto := newMessageDTO(*msg)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, refundID uuid.UUID, viewer auth.Actor) (*RefundDTO, error) {
	refund, err := s.repo.FindRefund(ctx, refundID)
	if err != nil {
		return nil, repo.MapError(err, "refund")
	}
	switch {
	case viewer.IsAdmin():
	case viewer.IsCustomer() && refund.CustomerID == viewer.ID:
	case viewer.OwnsVendor(refund.VendorID):
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
	}
	msgs, err := s.repo.ListMessages(ctx, refundID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refund messages")
	}
	return newRefundDTO(*refund, msgs), nil
}

func senderRoleOf(actor auth.Actor) enums.SenderRole {
	switch {
	case actor.IsAdmin():
		return enums.SenderRoleAdmin
	case actor.IsVendor():
		return enums.SenderRoleVendor
	}
	return ""
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
