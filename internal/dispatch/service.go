package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
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

// Service issues dispatch codes for vendor batches.
type Service interface {
	IssueCode(ctx context.Context, input IssueCodeInput) (*CodeDTO, error)
	ShipBatch(ctx context.Context, orderID, vendorID uuid.UUID, actor auth.Actor) error
}

// IssueCodeInput names the batch: one vendor's items on one order.
type IssueCodeInput struct {
	OrderID  uuid.UUID
	VendorID uuid.UUID
	Actor    auth.Actor
}

// BatchItem is one item of a dispatched batch.
type BatchItem struct {
	ID     uuid.UUID        `json:"id"`
	Status enums.ItemStatus `json:"status"`
}

// CodeDTO is the courier code of a batch. Issued is true only for the call
// that minted it.
type CodeDTO struct {
	OrderID   uuid.UUID   `json:"order_id"`
	VendorID  uuid.UUID   `json:"vendor_id"`
	Code      string      `json:"code"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []BatchItem `json:"items"`
	Issued    bool        `json:"issued"`
}

const maxIssueAttempts = 3

var errLostRace = errors.New("dispatch batch shipped concurrently")

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.Fulfillment
	newCode func() (string, error)
	now     func() time.Time
}

// NewService builds the dispatch service.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, m *metrics.Fulfillment) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		metrics: m,
		newCode: NewCode,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ShipBatch(ctx context.Context, orderID, vendorID uuid.UUID, actor auth.Actor) error {
	_, err := s.IssueCode(ctx, IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: actor})
	return err
}

// IssueCode ships a fully PROCESSING batch under a fresh code, or returns the
// code of a batch that already shipped. A caller that loses the race to ship
// re-reads and gets the winner's code.
func (s *service) IssueCode(ctx context.Context, input IssueCodeInput) (*CodeDTO, error) {
	if input.OrderID == uuid.Nil || input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and vendor id are required")
	}
	if !input.Actor.IsAdmin() && !input.Actor.OwnsVendor(input.VendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "batch belongs to another vendor")
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		dto, err := s.issueOnce(ctx, input)
		if errors.Is(err, errLostRace) {
			s.metrics.Dispatch("race_lost")
			continue
		}
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotReady) {
				s.metrics.Dispatch("not_ready")
			}
			return nil, err
		}
		if dto.Issued {
			s.metrics.Dispatch("issued")
		} else {
			s.metrics.Dispatch("reused")
		}
		return dto, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "dispatch batch is being updated concurrently")
}

func (s *service) issueOnce(ctx context.Context, input IssueCodeInput) (*CodeDTO, error) {
	var dto *CodeDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		items, err := txRepo.ListBatch(ctx, input.OrderID, input.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispatch batch")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor has no items on this order")
		}

		switch {
		case allIn(items, enums.ItemStatusProcessing):
			code, err := s.newCode()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint dispatch code")
			}
			at := s.now()
			ids := itemIDs(items)
			affected, err := txRepo.ShipBatch(ctx, ids, code, at)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ship dispatch batch")
			}
			if affected != int64(len(items)) {
				return errLostRace
			}
			for i := range items {
				items[i].Status = enums.ItemStatusShipped
				if err := s.outbox.Emit(ctx, tx, itemShippedEvent(items[i], input.Actor)); err != nil {
					return err
				}
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventDispatchCodeIssued,
				AggregateType: enums.AggregateOrder,
				AggregateID:   input.OrderID,
				Actor:         input.Actor.Ref(),
				Data: payloads.DispatchCodeIssuedEvent{
					OrderID:   input.OrderID,
					VendorID:  input.VendorID,
					ItemIDs:   ids,
					Code:      code,
					CreatedAt: at,
				},
			}); err != nil {
				return err
			}
			dto = newCodeDTO(input, items, code, at, true)
			return nil

		case allIn(items, enums.ItemStatusShipped, enums.ItemStatusDelivered) && items[0].DispatchCode != nil:
			var at time.Time
			if items[0].DispatchCodeCreatedAt != nil {
				at = *items[0].DispatchCodeCreatedAt
			}
			dto = newCodeDTO(input, items, *items[0].DispatchCode, at, false)
			return nil
		}

		return pkgerrors.New(pkgerrors.CodeNotReady, "every item in the batch must be PROCESSING").
			WithDetails(map[string]any{"items": notProcessing(items)})
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func allIn(items []models.OrderItem, statuses ...enums.ItemStatus) bool {
	for _, item := range items {
		ok := false
		for _, status := range statuses {
			if item.Status == status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func notProcessing(items []models.OrderItem) []BatchItem {
	var out []BatchItem
	for _, item := range items {
		if item.Status != enums.ItemStatusProcessing {
			out = append(out, BatchItem{ID: item.ID, Status: item.Status})
		}
	}
	return out
}

func itemIDs(items []models.OrderItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func newCodeDTO(input IssueCodeInput, items []models.OrderItem, code string, at time.Time, issued bool) *CodeDTO {
	dto := &CodeDTO{
		OrderID:   input.OrderID,
		VendorID:  input.VendorID,
		Code:      code,
		CreatedAt: at,
		Items:     make([]BatchItem, 0, len(items)),
		Issued:    issued,
	}
	for _, item := range items {
		dto.Items = append(dto.Items, BatchItem{ID: item.ID, Status: item.Status})
	}
	return dto
}

func itemShippedEvent(item models.OrderItem, actor auth.Actor) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderItemStatusChanged,
		AggregateType: enums.AggregateOrderItem,
		AggregateID:   item.ID,
		Actor:         actor.Ref(),
		Data: payloads.OrderItemStatusChangedEvent{
			OrderID:  item.OrderID,
			ItemID:   item.ID,
			VendorID: item.VendorID,
			From:     enums.ItemStatusProcessing,
			To:       enums.ItemStatusShipped,
		},
	}
}
