package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

func deliveredItem(vendorID uuid.UUID) models.OrderItem {
	return models.OrderItem{
		ID:                uuid.New(),
		OrderID:           uuid.New(),
		ProductID:         uuid.New(),
		VendorID:          vendorID,
		ProductName:       "Steel bolts",
		Quantity:          3,
		UnitPrice:         decimal.RequireFromString("33.33"),
		CommissionPercent: decimal.RequireFromString("10"),
		CommissionAmount:  decimal.RequireFromString("10.00"),
		VendorPayout:      decimal.RequireFromString("89.99"),
		Status:            enums.ItemStatusDelivered,
	}
}

func TestAccrueCommissionIsRecordedOnce(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	ctx := context.Background()
	item := deliveredItem(uuid.New())

	event, err := svc.AccrueCommission(ctx, db, item)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, enums.LedgerEventTypeCommissionAccrued, event.Type)
	assert.True(t, event.GrossAmount.Equal(decimal.RequireFromString("99.99")))
	assert.True(t, event.CommissionAmount.Equal(item.CommissionAmount))

	again, err := svc.AccrueCommission(ctx, db, item)
	require.NoError(t, err)
	assert.Nil(t, again)

	events, err := NewRepository(db).ListByOrderID(ctx, item.OrderID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordRefundApprovalReversesProportionally(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	ctx := context.Background()
	item := deliveredItem(uuid.New())
	refund := models.RefundRequest{
		ID:          uuid.New(),
		OrderItemID: item.ID,
		OrderID:     item.OrderID,
		VendorID:    item.VendorID,
		Amount:      decimal.RequireFromString("33.33"),
		Quantity:    1,
	}

	event, err := svc.RecordRefundApproval(ctx, db, refund, item)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.True(t, event.GrossAmount.Equal(decimal.RequireFromString("-33.33")), event.GrossAmount.String())
	assert.True(t, event.CommissionAmount.Equal(decimal.RequireFromString("-3.33")), event.CommissionAmount.String())
	assert.True(t, event.VendorPayout.Equal(decimal.RequireFromString("-30.00")), event.VendorPayout.String())
	assert.True(t, event.GrossAmount.Equal(event.CommissionAmount.Add(event.VendorPayout)))

	again, err := svc.RecordRefundApproval(ctx, db, refund, item)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestRecordRefundApprovalRejectsForeignItem(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)

	item := deliveredItem(uuid.New())
	_, err = svc.RecordRefundApproval(context.Background(), nil, models.RefundRequest{OrderItemID: uuid.New(), Quantity: 1}, item)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	refund := models.RefundRequest{ID: uuid.New(), OrderItemID: item.ID, Quantity: 4}
	_, err = svc.RecordRefundApproval(context.Background(), nil, refund, item)
	assert.Equal(t, pkgerrors.CodeInvalidRange, pkgerrors.CodeOf(err))
}

func TestReversedCommissionFullQuantity(t *testing.T) {
	item := deliveredItem(uuid.New())
	assert.True(t, ReversedCommission(item, 3).Equal(item.CommissionAmount))
	assert.True(t, ReversedCommission(item, 2).Equal(decimal.RequireFromString("6.67")))
}

func TestVendorSummaryNetsEntries(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	ctx := context.Background()
	vendorID := uuid.New()
	first := deliveredItem(vendorID)
	second := deliveredItem(vendorID)
	other := deliveredItem(uuid.New())

	for _, item := range []models.OrderItem{first, second, other} {
		_, err := svc.AccrueCommission(ctx, db, item)
		require.NoError(t, err)
	}
	_, err = svc.RecordRefundApproval(ctx, db, models.RefundRequest{
		ID:          uuid.New(),
		OrderItemID: second.ID,
		Amount:      decimal.RequireFromString("99.99"),
		Quantity:    3,
	}, second)
	require.NoError(t, err)

	summary, err := svc.VendorSummary(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Accruals)
	assert.Equal(t, 1, summary.Refunds)
	assert.True(t, summary.GrossAmount.Equal(decimal.RequireFromString("99.99")), summary.GrossAmount.String())
	assert.True(t, summary.CommissionAmount.Equal(decimal.RequireFromString("10.00")), summary.CommissionAmount.String())
	assert.True(t, summary.VendorPayout.Equal(decimal.RequireFromString("89.99")), summary.VendorPayout.String())

	_, err = svc.VendorSummary(ctx, uuid.Nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
