package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/commission"
	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes catalog management. Commission changes only affect orders
// created afterwards; existing order items keep their captured percent.
type Service interface {
	CreateVendor(ctx context.Context, input CreateVendorInput) (*VendorDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	UpdateCommission(ctx context.Context, input UpdateCommissionInput) (*ProductDTO, error)
}

// CreateVendorInput holds the validated payload to register a vendor.
type CreateVendorInput struct {
	Name                     string
	GSTIN                    *string
	DefaultCommissionPercent decimal.Decimal
}

// CreateProductInput holds the validated payload to list a product.
type CreateProductInput struct {
	VendorID          uuid.UUID
	Name              string
	SKU               string
	UnitPrice         decimal.Decimal
	CommissionPercent *decimal.Decimal
	Actor             auth.Actor
}

// UpdateCommissionInput sets or clears a product's commission override. A nil
// Percent falls back to the vendor default.
type UpdateCommissionInput struct {
	ProductID uuid.UUID
	Percent   *decimal.Decimal
	Actor     auth.Actor
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires the catalog service.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) CreateVendor(ctx context.Context, input CreateVendorInput) (*VendorDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name is required")
	}
	if err := commission.ValidatePercent(input.DefaultCommissionPercent); err != nil {
		return nil, err
	}
	vendor := &models.Vendor{
		ID:                       uuid.New(),
		Name:                     name,
		GSTIN:                    input.GSTIN,
		DefaultCommissionPercent: input.DefaultCommissionPercent,
	}
	if err := s.repo.CreateVendor(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	dto := newVendorDTO(*vendor)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !input.Actor.IsAdmin() && !input.Actor.OwnsVendor(input.VendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor mismatch")
	}
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" || sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and sku are required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRange, "unit price must not be negative")
	}
	override := decimal.NullDecimal{}
	if input.CommissionPercent != nil {
		if !input.Actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins set commission overrides")
		}
		if err := commission.ValidatePercent(*input.CommissionPercent); err != nil {
			return nil, err
		}
		override = decimal.NewNullDecimal(*input.CommissionPercent)
	}

	vendor, err := s.repo.FindVendor(ctx, input.VendorID)
	if err != nil {
		return nil, repo.MapError(err, "vendor")
	}
	product := &models.Product{
		ID:                uuid.New(),
		VendorID:          vendor.ID,
		Name:              name,
		SKU:               sku,
		UnitPrice:         input.UnitPrice,
		CommissionPercent: override,
		Active:            true,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	product.Vendor = vendor
	dto := newProductDTO(*product)
	return &dto, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, repo.MapError(err, "product")
	}
	dto := newProductDTO(*product)
	return &dto, nil
}

func (s *service) UpdateCommission(ctx context.Context, input UpdateCommissionInput) (*ProductDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	next := decimal.NullDecimal{}
	if input.Percent != nil {
		if err := commission.ValidatePercent(*input.Percent); err != nil {
			return nil, err
		}
		next = decimal.NewNullDecimal(*input.Percent)
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindProduct(ctx, input.ProductID)
		if err != nil {
			return repo.MapError(err, "product")
		}
		var previous *string
		if current.CommissionPercent.Valid {
			prev := current.CommissionPercent.Decimal.String()
			previous = &prev
		}
		if err := txRepo.UpdateCommissionPercent(ctx, current.ID, next); err != nil {
			return repo.MapError(err, "product")
		}
		current.CommissionPercent = next
		updated = current

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductCommissionUpdate,
			AggregateType: enums.AggregateProduct,
			AggregateID:   current.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.ProductCommissionUpdatedEvent{
				ProductID: current.ID,
				VendorID:  current.VendorID,
				Previous:  previous,
				Percent:   EffectivePercent(*current),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	dto := newProductDTO(*updated)
	return &dto, nil
}
