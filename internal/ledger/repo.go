package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// Repository manages persistence for ledger events. Entries are immutable:
// there is no update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LedgerEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.LedgerEvent, error)
	HasEntry(ctx context.Context, itemID uuid.UUID, eventType enums.LedgerEventType, refundID *uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, event *models.LedgerEvent) error {
	return r.DB(ctx).Create(event).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	if err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	if err := r.DB(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) HasEntry(ctx context.Context, itemID uuid.UUID, eventType enums.LedgerEventType, refundID *uuid.UUID) (bool, error) {
	q := r.DB(ctx).Model(&models.LedgerEvent{}).
		Where("order_item_id = ? AND type = ?", itemID, eventType)
	if refundID != nil {
		q = q.Where("refund_id = ?", *refundID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
