package complaints

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	Find(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.ComplaintStatus, resolution *string) (bool, error)
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

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.DB(ctx).Create(complaint).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.DB(ctx).Where("id = ?", id).First(&complaint).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.ComplaintStatus, resolution *string) (bool, error) {
	updates := map[string]any{"status": to}
	if resolution != nil {
		updates["resolution"] = *resolution
	}
	res := r.DB(ctx).Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
