package documents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// Repository persists generated documents and reads the order data they are
// rendered from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDocument(ctx context.Context, orderID uuid.UUID, scope string, docType enums.DocumentType) (*models.GeneratedDocument, error)
	InsertDocument(ctx context.Context, doc *models.GeneratedDocument) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.GeneratedDocument, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a documents repository.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// FindDocument returns nil without error when no document exists for the key.
func (r *repository) FindDocument(ctx context.Context, orderID uuid.UUID, scope string, docType enums.DocumentType) (*models.GeneratedDocument, error) {
	var doc models.GeneratedDocument
	err := r.DB(ctx).
		Where("order_id = ? AND vendor_scope = ? AND doc_type = ?", orderID, scope, docType).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// InsertDocument writes doc unless a row already holds its key. False means
// another writer got there first.
func (r *repository) InsertDocument(ctx context.Context, doc *models.GeneratedDocument) (bool, error) {
	res := r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(doc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.GeneratedDocument, error) {
	var docs []models.GeneratedDocument
	if err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC, id ASC") }).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.DB(ctx).Where("id = ?", vendorID).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}
