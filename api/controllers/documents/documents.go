package documents

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/api/middleware"
	"github.com/angelmondragon/vendorhub-backend/api/responses"
	"github.com/angelmondragon/vendorhub-backend/api/validators"
	docsvc "github.com/angelmondragon/vendorhub-backend/internal/documents"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

type generateRequest struct {
	OrderID  string  `json:"orderId" validate:"required,uuid"`
	VendorID *string `json:"vendorId" validate:"omitempty,uuid"`
}

// Generate produces the document named by the {type} path segment, or
// returns the copy already stored for the same scope. The response is 201
// when this call created at least one document.
func Generate(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		docType, err := enums.ParseDocumentType(chi.URLParam(r, "type"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown document type").WithDetails(map[string]any{"field": "type"}))
			return
		}
		var req generateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid orderId"))
			return
		}
		var vendorID *uuid.UUID
		if req.VendorID != nil {
			parsed, err := uuid.Parse(*req.VendorID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendorId"))
				return
			}
			vendorID = &parsed
		}

		result, err := svc.Generate(ctx, docsvc.GenerateInput{
			OrderID:  orderID,
			VendorID: vendorID,
			Type:     docType,
			Actor:    actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// List returns the documents of an order visible to the caller.
func List(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		docs, err := svc.List(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}
