package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
)

// Repository persists vendors and products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateVendor(ctx context.Context, vendor *models.Vendor) error
	CreateProduct(ctx context.Context, product *models.Product) error
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	UpdateCommissionPercent(ctx context.Context, id uuid.UUID, percent decimal.NullDecimal) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a catalog repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) CreateVendor(ctx context.Context, vendor *models.Vendor) error {
	return r.DB(ctx).Create(vendor).Error
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit("Vendor").Create(product).Error
}

func (r *repository) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.DB(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Preload("Vendor").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductsByIDs returns the matching products with vendors loaded. Missing
// ids are simply absent from the result.
func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.DB(ctx).Preload("Vendor").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) UpdateCommissionPercent(ctx context.Context, id uuid.UUID, percent decimal.NullDecimal) error {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("commission_percent", percent)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
