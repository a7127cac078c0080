package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
)

func TestTransitionItemHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	bolts := order.Items[2]
	vendorA := f.vendorActor(f.vendorA)
	courier := auth.Actor{ID: uuid.New(), Role: enums.ActorRoleCourier}

	processing, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: bolts.ID, Status: enums.ItemStatusProcessing, Actor: vendorA})
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusProcessing, processing.Status)
	assert.NotNil(t, processing.CommissionLockedAt)

	shipped, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: bolts.ID, Status: enums.ItemStatusShipped, Actor: vendorA})
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusShipped, shipped.Status)
	assert.Equal(t, 1, f.shipper.calls)

	delivered, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: bolts.ID, Status: enums.ItemStatusDelivered, Actor: courier})
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusDelivered, delivered.Status)

	var entries []models.LedgerEvent
	require.NoError(t, f.conn.Where("order_item_id = ?", bolts.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.LedgerEventTypeCommissionAccrued, entries[0].Type)
	assert.True(t, entries[0].CommissionAmount.Equal(decimal.RequireFromString("10.00")))

	assert.Equal(t, 2, f.countEvents(t, enums.EventOrderItemStatusChanged))
}

func TestTransitionItemSameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	dto, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: order.Items[0].ID, Status: enums.ItemStatusPending, Actor: f.admin})
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusPending, dto.Status)
	assert.Equal(t, 0, f.countEvents(t, enums.EventOrderItemStatusChanged))
}

func TestTransitionItemRejectsIllegalMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	item := order.Items[0]

	_, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusDelivered, Actor: f.admin})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))

	_, err = f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusRejected, Actor: f.vendorActor(f.vendorB)})
	require.NoError(t, err)

	_, err = f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusProcessing, Actor: f.admin})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, typed.Code())
	assert.Equal(t, map[string]any{"from": enums.ItemStatusRejected, "to": enums.ItemStatusProcessing}, typed.Details())

	stored, err := f.svc.GetOrder(ctx, order.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusRejected, stored.Items[0].Status)
	assert.Equal(t, 0, f.shipper.calls)
}

func TestTransitionItemAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	nuts := order.Items[0]

	tests := []struct {
		name   string
		actor  auth.Actor
		status enums.ItemStatus
	}{
		{"other vendor", f.vendorActor(f.vendorA), enums.ItemStatusProcessing},
		{"vendor cancel", f.vendorActor(f.vendorB), enums.ItemStatusCancelled},
		{"vendor deliver", f.vendorActor(f.vendorB), enums.ItemStatusDelivered},
		{"courier processing", auth.Actor{ID: uuid.New(), Role: enums.ActorRoleCourier}, enums.ItemStatusProcessing},
		{"customer", f.customer, enums.ItemStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: nuts.ID, Status: tt.status, Actor: tt.actor})
			assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
		})
	}

	_, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: nuts.ID, Status: enums.ItemStatusCancelled, Actor: f.admin})
	require.NoError(t, err)
}

func TestTransitionItemProcessingRequiresFrozenCommission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	item := order.Items[2]

	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("id = ?", item.ID).
		Update("commission_amount", decimal.RequireFromString("11.00")).Error)

	_, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusProcessing, Actor: f.admin})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))
}

func TestTransitionItemShipFailureLeavesItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	item := order.Items[2]

	_, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusProcessing, Actor: f.admin})
	require.NoError(t, err)

	f.shipper.err = pkgerrors.New(pkgerrors.CodeNotReady, "batch not ready")
	_, err = f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusShipped, Actor: f.admin})
	assert.Equal(t, pkgerrors.CodeNotReady, pkgerrors.CodeOf(err))

	stored, err := f.svc.GetOrder(ctx, order.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusProcessing, stored.Items[2].Status)
}

func TestTransitionItemConcurrentWritersApplyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	item := order.Items[0]

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusProcessing, Actor: f.admin})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.countEvents(t, enums.EventOrderItemStatusChanged))
}

// racingRepo lets a rival reject the item right after the service read it,
// so the service's compare-and-set loses.
type racingRepo struct {
	Repository
	conn *gorm.DB
	once sync.Once
}

func (r *racingRepo) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := r.Repository.FindItem(ctx, orderID, itemID)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		err = r.conn.Model(&models.OrderItem{}).Where("id = ?", itemID).Update("status", enums.ItemStatusRejected).Error
	})
	return item, err
}

func TestTransitionItemRevalidatesAfterLostRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	item := order.Items[0]

	s := f.svc.(*service)
	s.repo = &racingRepo{Repository: s.repo, conn: f.conn}

	_, err := s.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusProcessing, Actor: f.admin})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))
	assert.Equal(t, 0, f.countEvents(t, enums.EventOrderItemStatusChanged))
}

type failingOutbox struct{}

func (failingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return errors.New("outbox down")
}

func TestTransitionItemRollsBackWhenOutboxFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	item := order.Items[0]

	s := f.svc.(*service)
	s.outbox = failingOutbox{}

	_, err := s.TransitionItem(ctx, TransitionItemInput{OrderID: order.ID, ItemID: item.ID, Status: enums.ItemStatusProcessing, Actor: f.admin})
	require.Error(t, err)

	stored, err := s.GetOrder(ctx, order.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusPending, stored.Items[0].Status)
}
