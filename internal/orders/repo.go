package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// CreateOrder inserts the order row and then its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.DB(ctx).Omit("Items").Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&order.Items).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return r.loadOrder(r.DB(ctx), orderID)
}

// LockOrder reads the order under a row lock on postgres. Other dialects
// rely on the surrounding transaction.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	q := r.DB(ctx)
	if db.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.loadOrder(q, orderID)
}

func (r *repository) loadOrder(q *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := q.Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := q.Session(&gorm.Session{NewDB: true}).
		Where("order_id = ?", orderID).
		Order("line_no ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.DB(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CompareAndSetItemStatus moves the item only while it still holds from.
// False means another writer changed it first.
func (r *repository) CompareAndSetItemStatus(ctx context.Context, itemID uuid.UUID, from, to enums.ItemStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range updates {
		values[k] = v
	}
	res := r.DB(ctx).Model(&models.OrderItem{}).
		Where("id = ? AND status = ?", itemID, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CompareAndSetAdminStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND admin_status = ?", orderID, from).
		Updates(map[string]any{"admin_status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateExpectedDelivery(ctx context.Context, orderID uuid.UUID, at *time.Time) error {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"expected_delivery_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
