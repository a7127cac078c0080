package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/commission"
	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

// itemTransitions is the complete table of legal item moves. Terminal
// statuses have no entry.
var itemTransitions = map[enums.ItemStatus][]enums.ItemStatus{
	enums.ItemStatusPending:    {enums.ItemStatusProcessing, enums.ItemStatusRejected, enums.ItemStatusCancelled},
	enums.ItemStatusProcessing: {enums.ItemStatusShipped, enums.ItemStatusRejected, enums.ItemStatusCancelled},
	enums.ItemStatusShipped:    {enums.ItemStatusDelivered},
}

const maxTransitionAttempts = 3

var errStaleItem = errors.New("order item changed concurrently")

// CanTransition reports whether an item may move from one status to another.
func CanTransition(from, to enums.ItemStatus) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionItemInput requests a status move for one order item.
type TransitionItemInput struct {
	OrderID uuid.UUID
	ItemID  uuid.UUID
	Status  enums.ItemStatus
	Actor   auth.Actor
}

// TransitionItem applies a status move with compare-and-set semantics. When a
// concurrent writer wins, the item is re-read and the move validated again
// against the new state.
func (s *service) TransitionItem(ctx context.Context, input TransitionItemInput) (*ItemDTO, error) {
	if input.OrderID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and item id are required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		item, err := s.repo.FindItem(ctx, input.OrderID, input.ItemID)
		if err != nil {
			return nil, repo.MapError(err, "order item")
		}
		dto, err := s.transitionOnce(ctx, *item, input)
		if errors.Is(err, errStaleItem) {
			s.metrics.ItemTransition(string(item.Status), string(input.Status), "retry")
			continue
		}
		return dto, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "order item is being updated concurrently")
}

func (s *service) transitionOnce(ctx context.Context, item models.OrderItem, input TransitionItemInput) (*ItemDTO, error) {
	from, to := item.Status, input.Status
	if err := authorizeItemMove(input.Actor, item, to); err != nil {
		s.metrics.ItemTransition(string(from), string(to), "forbidden")
		return nil, err
	}
	if from == to {
		s.metrics.ItemTransition(string(from), string(to), "noop")
		dto := newItemDTO(item)
		return &dto, nil
	}
	if !CanTransition(from, to) {
		s.metrics.ItemTransition(string(from), string(to), "rejected")
		return nil, invalidTransition(from, to)
	}
	if to == enums.ItemStatusShipped {
		return s.shipItem(ctx, item, input.Actor)
	}

	updates := map[string]any{}
	if to == enums.ItemStatusProcessing {
		if !commission.Matches(item.UnitPrice, item.Quantity, item.CommissionPercent, item.CommissionAmount) {
			s.metrics.ItemTransition(string(from), string(to), "rejected")
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "commission fields are not frozen").
				WithDetails(map[string]any{"from": from, "to": to, "item_id": item.ID})
		}
		updates["commission_locked_at"] = time.Now().UTC()
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).CompareAndSetItemStatus(ctx, item.ID, from, to, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item status")
		}
		if !ok {
			return errStaleItem
		}
		moved := item
		moved.Status = to
		if to == enums.ItemStatusDelivered {
			if _, err := s.ledger.AccrueCommission(ctx, tx, moved); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, itemStatusEvent(moved, from, to, input.Actor))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ItemTransition(string(from), string(to), "applied")
	return s.reloadItem(ctx, item)
}

// shipItem hands the move to dispatch verification, which ships the whole
// vendor batch under one code.
func (s *service) shipItem(ctx context.Context, item models.OrderItem, actor auth.Actor) (*ItemDTO, error) {
	if err := s.shipper.ShipBatch(ctx, item.OrderID, item.VendorID, actor); err != nil {
		s.metrics.ItemTransition(string(item.Status), string(enums.ItemStatusShipped), "rejected")
		return nil, err
	}
	s.metrics.ItemTransition(string(item.Status), string(enums.ItemStatusShipped), "applied")
	return s.reloadItem(ctx, item)
}

func (s *service) reloadItem(ctx context.Context, item models.OrderItem) (*ItemDTO, error) {
	updated, err := s.repo.FindItem(ctx, item.OrderID, item.ID)
	if err != nil {
		return nil, repo.MapError(err, "order item")
	}
	dto := newItemDTO(*updated)
	return &dto, nil
}

// authorizeItemMove enforces who may request which target status. Vendors
// act on their own items and decline with REJECTED; couriers only deliver;
// per-item cancellation is reserved to admins.
func authorizeItemMove(actor auth.Actor, item models.OrderItem, to enums.ItemStatus) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsVendor():
		if !actor.OwnsVendor(item.VendorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another vendor")
		}
		switch to {
		case enums.ItemStatusProcessing, enums.ItemStatusShipped, enums.ItemStatusRejected:
			return nil
		case enums.ItemStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeForbidden, "vendors decline items with REJECTED")
		}
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "vendors cannot set %s", to)
	case actor.IsCourier():
		if to == enums.ItemStatusDelivered {
			return nil
		}
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "couriers cannot set %s", to)
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot change item status")
}

func invalidTransition(from, to enums.ItemStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot move item from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to})
}
