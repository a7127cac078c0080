package complaints

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/api/middleware"
	"github.com/angelmondragon/vendorhub-backend/api/responses"
	"github.com/angelmondragon/vendorhub-backend/api/validators"
	complaintsvc "github.com/angelmondragon/vendorhub-backend/internal/complaints"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

type openRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=4000"`
}

func Create(svc complaintsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req openRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid orderId"))
			return
		}
		complaint, err := svc.Open(ctx, complaintsvc.OpenInput{
			OrderID: orderID,
			Subject: validators.SanitizeString(req.Subject, 200),
			Body:    validators.SanitizeString(req.Body, 4000),
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, complaint)
	}
}

func Detail(svc complaintsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "complaintId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		complaint, err := svc.Get(ctx, id, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, complaint)
	}
}

type advanceRequest struct {
	Status     string  `json:"status" validate:"required"`
	Resolution *string `json:"resolution" validate:"omitempty,max=4000"`
}

// Advance moves a complaint forward. Admin only.
func Advance(svc complaintsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "complaintId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req advanceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseComplaintStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		complaint, err := svc.Advance(ctx, complaintsvc.AdvanceInput{
			ID:         id,
			Status:     status,
			Resolution: req.Resolution,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, complaint)
	}
}
