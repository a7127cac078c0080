package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	CompareAndSetItemStatus(ctx context.Context, itemID uuid.UUID, from, to enums.ItemStatus, updates map[string]any) (bool, error)
	CompareAndSetAdminStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	UpdateExpectedDelivery(ctx context.Context, orderID uuid.UUID, at *time.Time) error
}

// CatalogReader loads the products a cart refers to, vendors included.
type CatalogReader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// CommissionLedger books the commission of a delivered item inside the
// transaction that delivered it.
type CommissionLedger interface {
	AccrueCommission(ctx context.Context, tx *gorm.DB, item models.OrderItem) (*models.LedgerEvent, error)
}

// BatchShipper moves a vendor's batch on an order to SHIPPED through
// dispatch verification.
type BatchShipper interface {
	ShipBatch(ctx context.Context, orderID, vendorID uuid.UUID, actor auth.Actor) error
}
