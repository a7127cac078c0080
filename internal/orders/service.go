package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/commission"
	product "github.com/angelmondragon/vendorhub-backend/internal/products"
	"github.com/angelmondragon/vendorhub-backend/internal/repo"
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

// Service defines order aggregation and item fulfillment operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, viewer auth.Actor) (*OrderDTO, error)
	SetAdminStatus(ctx context.Context, input SetAdminStatusInput) (*OrderDTO, error)
	SetExpectedDelivery(ctx context.Context, input SetExpectedDeliveryInput) (*OrderDTO, error)
	TransitionItem(ctx context.Context, input TransitionItemInput) (*ItemDTO, error)
}

// ServiceParams carries the collaborators of the orders service.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Catalog    CatalogReader
	Ledger     CommissionLedger
	Shipper    BatchShipper
	Metrics    *metrics.Fulfillment
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	catalog CatalogReader
	ledger  CommissionLedger
	shipper BatchShipper
	metrics *metrics.Fulfillment
}

// CartLine is one product and quantity in an incoming cart.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries a checkout.
type CreateOrderInput struct {
	CustomerID         uuid.UUID
	PaymentMethod      enums.PaymentMethod
	ExpectedDeliveryAt *time.Time
	Lines              []CartLine
	Actor              auth.Actor
}

// SetAdminStatusInput moves the coarse order status.
type SetAdminStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   auth.Actor
}

// SetExpectedDeliveryInput updates the promised delivery date. A nil
// ExpectedDeliveryAt clears it.
type SetExpectedDeliveryInput struct {
	OrderID            uuid.UUID
	ExpectedDeliveryAt *time.Time
	Actor              auth.Actor
}

// NewService builds the orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("commission ledger required")
	}
	if params.Shipper == nil {
		return nil, fmt.Errorf("batch shipper required")
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		outbox:  params.Outbox,
		catalog: params.Catalog,
		ledger:  params.Ledger,
		shipper: params.Shipper,
		metrics: params.Metrics,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.Actor.IsCustomer() && input.Actor.ID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers order for themselves")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	ids := make([]uuid.UUID, 0, len(input.Lines))
	seen := make(map[uuid.UUID]struct{}, len(input.Lines))
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"line": i, "quantity": line.Quantity})
		}
		if _, ok := seen[line.ProductID]; !ok {
			seen[line.ProductID] = struct{}{}
			ids = append(ids, line.ProductID)
		}
	}

	products, err := s.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	var missing, inactive []string
	for _, id := range ids {
		p, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id.String())
		case !p.Active:
			inactive = append(inactive, id.String())
		}
	}
	if len(missing) > 0 || len(inactive) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart references unavailable products").
			WithDetails(map[string]any{"missing_products": missing, "inactive_products": inactive})
	}

	order := &models.Order{
		ID:                 uuid.New(),
		CustomerID:         input.CustomerID,
		PaymentMethod:      input.PaymentMethod,
		AdminStatus:        enums.OrderStatusPending,
		ExpectedDeliveryAt: input.ExpectedDeliveryAt,
		TotalAmount:        decimal.Zero,
	}
	for _, group := range groupByVendor(input.Lines, byID) {
		for _, line := range group {
			p := byID[line.ProductID]
			split, err := commission.Calculate(p.UnitPrice, line.Quantity, product.EffectivePercent(p))
			if err != nil {
				return nil, err
			}
			order.Items = append(order.Items, models.OrderItem{
				ID:                uuid.New(),
				OrderID:           order.ID,
				ProductID:         p.ID,
				VendorID:          p.VendorID,
				LineNo:            len(order.Items) + 1,
				ProductName:       p.Name,
				Quantity:          line.Quantity,
				UnitPrice:         p.UnitPrice,
				CommissionPercent: product.EffectivePercent(p),
				CommissionAmount:  split.CommissionAmount,
				VendorPayout:      split.VendorPayout,
				Status:            enums.ItemStatusPending,
			})
			order.TotalAmount = order.TotalAmount.Add(split.Subtotal)
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		itemIDs := make([]uuid.UUID, 0, len(order.Items))
		for _, item := range order.Items {
			itemIDs = append(itemIDs, item.ID)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				VendorIDs:   vendorIDs(order.Items),
				ItemIDs:     itemIDs,
				TotalAmount: order.TotalAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	dto := newOrderDTO(*order, input.Actor)
	return &dto, nil
}

// groupByVendor buckets cart lines per vendor. Vendors keep the order of
// their first appearance and lines keep cart order inside a vendor.
func groupByVendor(lines []CartLine, products map[uuid.UUID]models.Product) [][]CartLine {
	index := make(map[uuid.UUID]int)
	var groups [][]CartLine
	for _, line := range lines {
		vendorID := products[line.ProductID].VendorID
		i, ok := index[vendorID]
		if !ok {
			i = len(groups)
			index[vendorID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], line)
	}
	return groups
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, viewer auth.Actor) (*OrderDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, repo.MapError(err, "order")
	}
	if !canView(viewer, *order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := newOrderDTO(*order, viewer)
	return &dto, nil
}

func canView(viewer auth.Actor, order models.Order) bool {
	switch {
	case viewer.IsAdmin(), viewer.IsCourier():
		return true
	case viewer.IsCustomer():
		return order.CustomerID == viewer.ID
	case viewer.IsVendor():
		for _, item := range order.Items {
			if viewer.OwnsVendor(item.VendorID) {
				return true
			}
		}
	}
	return false
}

func (s *service) SetAdminStatus(ctx context.Context, input SetAdminStatusInput) (*OrderDTO, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	type cancelled struct {
		id   uuid.UUID
		from enums.ItemStatus
	}
	var cascaded []cancelled
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return repo.MapError(err, "order")
		}
		from, to := order.AdminStatus, input.Status
		if from == to {
			return nil
		}
		if !canSetAdminStatus(from, to) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition not allowed").
				WithDetails(map[string]any{"from": from, "to": to})
		}
		if to == enums.OrderStatusDelivered {
			if open := openItemIDs(order.Items); len(open) > 0 {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order has items that are not shipped").
					WithDetails(map[string]any{"from": from, "to": to, "open_items": open})
			}
		}

		ok, err := txRepo.CompareAndSetAdminStatus(ctx, order.ID, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}

		var cancelledIDs []uuid.UUID
		if to == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if item.Status != enums.ItemStatusPending && item.Status != enums.ItemStatusProcessing {
					continue
				}
				ok, err := txRepo.CompareAndSetItemStatus(ctx, item.ID, item.Status, enums.ItemStatusCancelled, nil)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order item")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeConflict, "order item changed concurrently").
						WithDetails(map[string]any{"item_id": item.ID})
				}
				if err := s.outbox.Emit(ctx, tx, itemStatusEvent(item, item.Status, enums.ItemStatusCancelled, input.Actor)); err != nil {
					return err
				}
				cascaded = append(cascaded, cancelled{id: item.ID, from: item.Status})
				cancelledIDs = append(cancelledIDs, item.ID)
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				From:           from,
				To:             to,
				CancelledItems: cancelledIDs,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	for _, c := range cascaded {
		s.metrics.ItemTransition(string(c.from), string(enums.ItemStatusCancelled), "applied")
	}
	return s.GetOrder(ctx, input.OrderID, input.Actor)
}

func openItemIDs(items []models.OrderItem) []uuid.UUID {
	var ids []uuid.UUID
	for _, item := range items {
		if item.Status == enums.ItemStatusPending || item.Status == enums.ItemStatusProcessing {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func (s *service) SetExpectedDelivery(ctx context.Context, input SetExpectedDeliveryInput) (*OrderDTO, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	var at *time.Time
	if input.ExpectedDeliveryAt != nil {
		utc := input.ExpectedDeliveryAt.UTC()
		at = &utc
	}
	if err := s.repo.UpdateExpectedDelivery(ctx, input.OrderID, at); err != nil {
		return nil, repo.MapError(err, "order")
	}
	return s.GetOrder(ctx, input.OrderID, input.Actor)
}

func itemStatusEvent(item models.OrderItem, from, to enums.ItemStatus, actor auth.Actor) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderItemStatusChanged,
		AggregateType: enums.AggregateOrderItem,
		AggregateID:   item.ID,
		Actor:         actor.Ref(),
		Data: payloads.OrderItemStatusChangedEvent{
			OrderID:  item.OrderID,
			ItemID:   item.ID,
			VendorID: item.VendorID,
			From:     from,
			To:       to,
		},
	}
}
