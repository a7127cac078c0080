package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/api/middleware"
	"github.com/angelmondragon/vendorhub-backend/api/responses"
	"github.com/angelmondragon/vendorhub-backend/api/validators"
	"github.com/angelmondragon/vendorhub-backend/internal/ledger"
	product "github.com/angelmondragon/vendorhub-backend/internal/products"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

type createVendorRequest struct {
	Name                     string          `json:"name" validate:"required,max=200"`
	GSTIN                    *string         `json:"gstin" validate:"omitempty,len=15"`
	DefaultCommissionPercent decimal.Decimal `json:"defaultCommissionPercent"`
}

// AdminCreateVendor registers a vendor with its default commission.
func AdminCreateVendor(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVendorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.CreateVendor(r.Context(), product.CreateVendorInput{
			Name:                     validators.SanitizeString(req.Name, 200),
			GSTIN:                    req.GSTIN,
			DefaultCommissionPercent: req.DefaultCommissionPercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

type createProductRequest struct {
	VendorID          string           `json:"vendorId" validate:"required,uuid"`
	Name              string           `json:"name" validate:"required,max=200"`
	SKU               string           `json:"sku" validate:"required,max=64"`
	UnitPrice         decimal.Decimal  `json:"unitPrice"`
	CommissionPercent *decimal.Decimal `json:"commissionPercent"`
}

// CreateProduct lists a product for a vendor.
func CreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := parseUUID(req.VendorID, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateProduct(r.Context(), product.CreateProductInput{
			VendorID:          vendorID,
			Name:              validators.SanitizeString(req.Name, 200),
			SKU:               validators.SanitizeString(req.SKU, 64),
			UnitPrice:         req.UnitPrice,
			CommissionPercent: req.CommissionPercent,
			Actor:             actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type commissionRequest struct {
	Percent *decimal.Decimal `json:"percent"`
}

// AdminUpdateCommission sets or clears a product's commission override.
func AdminUpdateCommission(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req commissionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateCommission(r.Context(), product.UpdateCommissionInput{
			ProductID: productID,
			Percent:   req.Percent,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type settlementReader interface {
	VendorSummary(ctx context.Context, vendorID uuid.UUID) (*ledger.VendorSummary, error)
}

// VendorSettlement returns the ledger totals of a vendor. Vendors only see
// their own statement.
func VendorSettlement(svc settlementReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !actor.IsAdmin() && !actor.OwnsVendor(vendorID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor mismatch"))
			return
		}
		summary, err := svc.VendorSummary(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
