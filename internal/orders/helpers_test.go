package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/ledger"
	product "github.com/angelmondragon/vendorhub-backend/internal/products"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
)

type stubShipper struct {
	conn  *gorm.DB
	calls int
	err   error
}

// ShipBatch marks the vendor's processing items shipped the way dispatch
// verification would.
func (s *stubShipper) ShipBatch(ctx context.Context, orderID, vendorID uuid.UUID, actor auth.Actor) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return s.conn.Model(&models.OrderItem{}).
		Where("order_id = ? AND vendor_id = ? AND status = ?", orderID, vendorID, enums.ItemStatusProcessing).
		Updates(map[string]any{"status": enums.ItemStatusShipped, "dispatch_code": "123456"}).Error
}

type fixture struct {
	conn     *gorm.DB
	svc      Service
	shipper  *stubShipper
	vendorA  models.Vendor
	vendorB  models.Vendor
	bolts    models.Product // vendor A, 10% default
	nuts     models.Product // vendor B, 7.5% override
	washers  models.Product // vendor A, inactive
	customer auth.Actor
	admin    auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)

	f := &fixture{
		conn:     conn,
		shipper:  &stubShipper{conn: conn},
		customer: auth.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer},
		admin:    auth.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
	}
	f.vendorA = models.Vendor{ID: uuid.New(), Name: "Acme", DefaultCommissionPercent: decimal.NewFromInt(10)}
	f.vendorB = models.Vendor{ID: uuid.New(), Name: "Bolt Co", DefaultCommissionPercent: decimal.NewFromInt(20)}
	require.NoError(t, conn.Create(&f.vendorA).Error)
	require.NoError(t, conn.Create(&f.vendorB).Error)

	f.bolts = models.Product{ID: uuid.New(), VendorID: f.vendorA.ID, Name: "Bolts", SKU: "B-1", UnitPrice: decimal.RequireFromString("33.33"), Active: true}
	f.nuts = models.Product{
		ID: uuid.New(), VendorID: f.vendorB.ID, Name: "Nuts", SKU: "N-1",
		UnitPrice: decimal.RequireFromString("19.99"), CommissionPercent: decimal.NewNullDecimal(decimal.RequireFromString("7.5")), Active: true,
	}
	f.washers = models.Product{ID: uuid.New(), VendorID: f.vendorA.ID, Name: "Washers", SKU: "W-1", UnitPrice: decimal.NewFromInt(1), Active: true}
	for _, p := range []*models.Product{&f.bolts, &f.nuts, &f.washers} {
		require.NoError(t, conn.Omit("Vendor").Create(p).Error)
	}
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", f.washers.ID).Update("active", false).Error)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Tx:         db.NewFromGorm(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Catalog:    product.NewRepository(conn),
		Ledger:     ledgerSvc,
		Shipper:    f.shipper,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) vendorActor(v models.Vendor) auth.Actor {
	id := v.ID
	return auth.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &id}
}

func (f *fixture) placeOrder(t *testing.T) *OrderDTO {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    f.customer.ID,
		PaymentMethod: enums.PaymentMethodCashOnDeliver,
		Lines: []CartLine{
			{ProductID: f.nuts.ID, Quantity: 2},
			{ProductID: f.bolts.ID, Quantity: 3},
			{ProductID: f.nuts.ID, Quantity: 1},
		},
		Actor: f.customer,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) countEvents(t *testing.T, eventType enums.OutboxEventType) int {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return int(count)
}
