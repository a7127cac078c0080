package refunds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// Repository persists refund requests and their dispute threads. Messages
// can only be inserted and listed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	HasOpenRefund(ctx context.Context, itemID uuid.UUID) (bool, error)
	CreateRefund(ctx context.Context, refund *models.RefundRequest) error
	FindRefund(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error)
	Decide(ctx context.Context, id uuid.UUID, decision enums.RefundStatus, note *string, at time.Time) (bool, error)
	InsertMessage(ctx context.Context, msg *models.RefundMessage) error
	ListMessages(ctx context.Context, refundID uuid.UUID) ([]models.RefundMessage, error)
	CountPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.DB(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// HasOpenRefund reports whether the item already carries a refund that was
// not rejected.
func (r *repository) HasOpenRefund(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.RefundRequest{}).
		Where("order_item_id = ? AND status <> ?", itemID, enums.RefundStatusRejected).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.RefundRequest) error {
	return r.DB(ctx).Create(refund).Error
}

func (r *repository) FindRefund(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	var refund models.RefundRequest
	if err := r.DB(ctx).Where("id = ?", id).First(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

// Decide moves a PENDING refund to its decision. False means the refund was
// missing or already decided.
func (r *repository) Decide(ctx context.Context, id uuid.UUID, decision enums.RefundStatus, note *string, at time.Time) (bool, error) {
	res := r.DB(ctx).Model(&models.RefundRequest{}).
		Where("id = ? AND status = ?", id, enums.RefundStatusPending).
		Updates(map[string]any{
			"status":     decision,
			"admin_note": note,
			"decided_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertMessage(ctx context.Context, msg *models.RefundMessage) error {
	return r.DB(ctx).Create(msg).Error
}

func (r *repository) ListMessages(ctx context.Context, refundID uuid.UUID) ([]models.RefundMessage, error) {
	var msgs []models.RefundMessage
	if err := r.DB(ctx).
		Where("refund_id = ?", refundID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountPendingBefore counts undecided refunds filed before cutoff.
func (r *repository) CountPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.RefundRequest{}).
		Where("status = ? AND created_at < ?", enums.RefundStatusPending, cutoff).
		Count(&count).Error
	return count, err
}
