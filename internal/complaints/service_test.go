package complaints

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
)

var admin = auth.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}

func setup(t *testing.T) (Service, *gorm.DB, models.Order, auth.Actor) {
	t.Helper()
	conn := dbtest.Open(t)
	customer := auth.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	order := models.Order{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		TotalAmount:   decimal.NewFromInt(10),
		PaymentMethod: enums.PaymentMethodWallet,
		AdminStatus:   enums.OrderStatusPending,
	}
	require.NoError(t, conn.Omit("Items").Create(&order).Error)
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return svc, conn, order, customer
}

func TestCanAdvance(t *testing.T) {
	assert.True(t, CanAdvance(enums.ComplaintStatusOpen, enums.ComplaintStatusInReview))
	assert.True(t, CanAdvance(enums.ComplaintStatusOpen, enums.ComplaintStatusResolved))
	assert.True(t, CanAdvance(enums.ComplaintStatusInReview, enums.ComplaintStatusResolved))
	assert.False(t, CanAdvance(enums.ComplaintStatusInReview, enums.ComplaintStatusOpen))
	assert.False(t, CanAdvance(enums.ComplaintStatusResolved, enums.ComplaintStatusInReview))
	assert.False(t, CanAdvance(enums.ComplaintStatusOpen, enums.ComplaintStatusOpen))
}

func TestComplaintLifecycle(t *testing.T) {
	svc, conn, order, customer := setup(t)
	ctx := context.Background()

	opened, err := svc.Open(ctx, OpenInput{OrderID: order.ID, Subject: " Late ", Body: "still waiting", Actor: customer})
	require.NoError(t, err)
	assert.Equal(t, enums.ComplaintStatusOpen, opened.Status)
	assert.Equal(t, "Late", opened.Subject)

	reviewing, err := svc.Advance(ctx, AdvanceInput{ID: opened.ID, Status: enums.ComplaintStatusInReview, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, enums.ComplaintStatusInReview, reviewing.Status)

	resolution := "courier rescheduled"
	resolved, err := svc.Advance(ctx, AdvanceInput{ID: opened.ID, Status: enums.ComplaintStatusResolved, Resolution: &resolution, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, enums.ComplaintStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, resolution, *resolved.Resolution)

	_, err = svc.Advance(ctx, AdvanceInput{ID: opened.ID, Status: enums.ComplaintStatusInReview, Actor: admin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))

	got, err := svc.Get(ctx, opened.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, enums.ComplaintStatusResolved, got.Status)

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_type = ?", enums.AggregateComplaint).Count(&events).Error)
	assert.Equal(t, int64(3), events)
}

func TestComplaintAccessRules(t *testing.T) {
	svc, _, order, customer := setup(t)
	ctx := context.Background()
	stranger := auth.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}

	_, err := svc.Open(ctx, OpenInput{OrderID: order.ID, Subject: "x", Body: "y", Actor: stranger})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Open(ctx, OpenInput{OrderID: order.ID, Subject: "x", Body: "y", Actor: admin})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.Open(ctx, OpenInput{OrderID: order.ID, Subject: "  ", Body: "y", Actor: customer})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	opened, err := svc.Open(ctx, OpenInput{OrderID: order.ID, Subject: "x", Body: "y", Actor: customer})
	require.NoError(t, err)

	_, err = svc.Advance(ctx, AdvanceInput{ID: opened.ID, Status: enums.ComplaintStatusResolved, Actor: customer})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.Get(ctx, opened.ID, stranger)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Advance(ctx, AdvanceInput{ID: uuid.New(), Status: enums.ComplaintStatusResolved, Actor: admin})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
