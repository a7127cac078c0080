package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
)

// VendorDTO is the catalog view of a seller.
type VendorDTO struct {
	ID                       uuid.UUID       `json:"id"`
	Name                     string          `json:"name"`
	GSTIN                    *string         `json:"gstin,omitempty"`
	DefaultCommissionPercent decimal.Decimal `json:"default_commission_percent"`
	CreatedAt                time.Time       `json:"created_at"`
}

// ProductDTO represents a catalog product together with the commission
// percent a checkout would capture right now.
type ProductDTO struct {
	ID                         uuid.UUID        `json:"id"`
	VendorID                   uuid.UUID        `json:"vendor_id"`
	Name                       string           `json:"name"`
	SKU                        string           `json:"sku"`
	UnitPrice                  decimal.Decimal  `json:"unit_price"`
	CommissionPercent          *decimal.Decimal `json:"commission_percent,omitempty"`
	EffectiveCommissionPercent decimal.Decimal  `json:"effective_commission_percent"`
	Active                     bool             `json:"active"`
	UpdatedAt                  time.Time        `json:"updated_at"`
}

func newVendorDTO(v models.Vendor) VendorDTO {
	return VendorDTO{
		ID:                       v.ID,
		Name:                     v.Name,
		GSTIN:                    v.GSTIN,
		DefaultCommissionPercent: v.DefaultCommissionPercent,
		CreatedAt:                v.CreatedAt,
	}
}

func newProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:                         p.ID,
		VendorID:                   p.VendorID,
		Name:                       p.Name,
		SKU:                        p.SKU,
		UnitPrice:                  p.UnitPrice,
		EffectiveCommissionPercent: EffectivePercent(p),
		Active:                     p.Active,
		UpdatedAt:                  p.UpdatedAt,
	}
	if p.CommissionPercent.Valid {
		percent := p.CommissionPercent.Decimal
		dto.CommissionPercent = &percent
	}
	return dto
}

// EffectivePercent is the product override when set, else the vendor
// default. The vendor must be loaded for products without an override.
func EffectivePercent(p models.Product) decimal.Decimal {
	if p.CommissionPercent.Valid {
		return p.CommissionPercent.Decimal
	}
	if p.Vendor != nil {
		return p.Vendor.DefaultCommissionPercent
	}
	return decimal.Zero
}
