package dispatch

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

// Repository reads and ships vendor batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListBatch(ctx context.Context, orderID, vendorID uuid.UUID) ([]models.OrderItem, error)
	ShipBatch(ctx context.Context, itemIDs []uuid.UUID, code string, at time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a dispatch repository.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// ListBatch returns the vendor's live items on the order, locked on postgres.
func (r *repository) ListBatch(ctx context.Context, orderID, vendorID uuid.UUID) ([]models.OrderItem, error) {
	q := r.DB(ctx)
	if db.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var items []models.OrderItem
	if err := q.
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		Where("status NOT IN ?", []enums.ItemStatus{enums.ItemStatusRejected, enums.ItemStatusCancelled}).
		Order("line_no ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ShipBatch stamps the code and moves the items to SHIPPED, touching only
// rows still PROCESSING. The caller compares the affected count with the
// batch size.
func (r *repository) ShipBatch(ctx context.Context, itemIDs []uuid.UUID, code string, at time.Time) (int64, error) {
	res := r.DB(ctx).Model(&models.OrderItem{}).
		Where("id IN ? AND status = ?", itemIDs, enums.ItemStatusProcessing).
		Updates(map[string]any{
			"status":                   enums.ItemStatusShipped,
			"dispatch_code":            code,
			"dispatch_code_created_at": at,
			"updated_at":               at,
		})
	return res.RowsAffected, res.Error
}
