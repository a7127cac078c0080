package product

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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return svc, conn
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	require.Error(t, err)
}

func TestCreateProductUsesVendorDefault(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, CreateVendorInput{Name: "Acme", DefaultCommissionPercent: decimal.RequireFromString("12.5")})
	require.NoError(t, err)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		VendorID:  vendor.ID,
		Name:      "Copper wire",
		SKU:       "CW-1",
		UnitPrice: decimal.RequireFromString("40"),
		Actor:     auth.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &vendor.ID},
	})
	require.NoError(t, err)
	assert.Nil(t, product.CommissionPercent)
	assert.True(t, product.EffectiveCommissionPercent.Equal(decimal.RequireFromString("12.5")))

	loaded, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, loaded.EffectiveCommissionPercent.Equal(decimal.RequireFromString("12.5")))
}

func TestCreateVendorValidatesPercent(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateVendor(context.Background(), CreateVendorInput{Name: "Acme", DefaultCommissionPercent: decimal.NewFromInt(101)})
	assert.Equal(t, pkgerrors.CodeInvalidRange, pkgerrors.CodeOf(err))
}

func TestCreateProductRejectsForeignVendor(t *testing.T) {
	svc, _ := newTestService(t)
	other := uuid.New()
	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		VendorID:  uuid.New(),
		Name:      "Copper wire",
		SKU:       "CW-1",
		UnitPrice: decimal.NewFromInt(1),
		Actor:     auth.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &other},
	})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestUpdateCommissionEmitsEvent(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, CreateVendorInput{Name: "Acme", DefaultCommissionPercent: decimal.NewFromInt(10)})
	require.NoError(t, err)
	product, err := svc.CreateProduct(ctx, CreateProductInput{
		VendorID: vendor.ID, Name: "Valve", SKU: "V-1", UnitPrice: decimal.NewFromInt(100), Actor: admin,
	})
	require.NoError(t, err)

	percent := decimal.RequireFromString("7.25")
	updated, err := svc.UpdateCommission(ctx, UpdateCommissionInput{ProductID: product.ID, Percent: &percent, Actor: admin})
	require.NoError(t, err)
	require.NotNil(t, updated.CommissionPercent)
	assert.True(t, updated.EffectiveCommissionPercent.Equal(percent))

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventProductCommissionUpdate).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, product.ID, events[0].AggregateID)

	cleared, err := svc.UpdateCommission(ctx, UpdateCommissionInput{ProductID: product.ID, Actor: admin})
	require.NoError(t, err)
	assert.Nil(t, cleared.CommissionPercent)
	assert.True(t, cleared.EffectiveCommissionPercent.Equal(decimal.NewFromInt(10)))
}

func TestUpdateCommissionRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := decimal.NewFromInt(-1)
	_, err := svc.UpdateCommission(ctx, UpdateCommissionInput{ProductID: uuid.New(), Percent: &bad, Actor: admin})
	assert.Equal(t, pkgerrors.CodeInvalidRange, pkgerrors.CodeOf(err))

	vendorID := uuid.New()
	ok := decimal.NewFromInt(5)
	_, err = svc.UpdateCommission(ctx, UpdateCommissionInput{
		ProductID: uuid.New(), Percent: &ok,
		Actor: auth.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &vendorID},
	})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.UpdateCommission(ctx, UpdateCommissionInput{ProductID: uuid.New(), Percent: &ok, Actor: admin})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
