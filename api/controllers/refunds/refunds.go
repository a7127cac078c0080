package refunds

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/api/middleware"
	"github.com/angelmondragon/vendorhub-backend/api/responses"
	"github.com/angelmondragon/vendorhub-backend/api/validators"
	refundsvc "github.com/angelmondragon/vendorhub-backend/internal/refunds"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

const (
	maxReasonLength  = 2000
	maxMessageLength = 4000
)

type createRefundRequest struct {
	OrderItemID      string          `json:"orderItemId" validate:"required,uuid"`
	CustomerID       *string         `json:"customerId" validate:"omitempty,uuid"`
	Reason           string          `json:"reason" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"money"`
	EvidenceURLs     []string        `json:"evidenceUrls" validate:"omitempty,dive,url"`
	BillURL          *string         `json:"billUrl" validate:"omitempty,url"`
	TransportSlipURL *string         `json:"transportSlipUrl" validate:"omitempty,url"`
}

// Create files a refund claim against a delivered order item.
func Create(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req createRefundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuid.Parse(req.OrderItemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid orderItemId"))
			return
		}
		customerID := actor.ID
		if req.CustomerID != nil {
			if customerID, err = uuid.Parse(*req.CustomerID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customerId"))
				return
			}
		}

		refund, err := svc.RequestRefund(ctx, refundsvc.RequestRefundInput{
			OrderItemID:      itemID,
			CustomerID:       customerID,
			Reason:           validators.SanitizeString(req.Reason, maxReasonLength),
			Amount:           req.Amount,
			EvidenceURLs:     req.EvidenceURLs,
			BillURL:          req.BillURL,
			TransportSlipURL: req.TransportSlipURL,
			Actor:            actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

// Detail returns a refund and its message thread.
func Detail(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		refundID, err := validators.ParseUUIDParam(r, "refundId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		refund, err := svc.Get(ctx, refundID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, refund)
	}
}

type decideRequest struct {
	Decision string  `json:"decision" validate:"required"`
	Note     *string `json:"note" validate:"omitempty,max=2000"`
}

// Decide approves or rejects a pending refund.
func Decide(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		refundID, err := validators.ParseUUIDParam(r, "refundId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req decideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		decision, err := enums.ParseRefundStatus(req.Decision)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}
		refund, err := svc.Decide(ctx, refundsvc.DecideInput{
			RefundID: refundID,
			Decision: decision,
			Note:     req.Note,
			Actor:    actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, refund)
	}
}

type messageRequest struct {
	SenderRole *string `json:"senderRole"`
	Text       string  `json:"text"`
}

// PostMessage appends to a refund's thread. An empty text is rejected by the
// service with EMPTY_MESSAGE rather than by body validation.
func PostMessage(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		refundID, err := validators.ParseUUIDParam(r, "refundId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req messageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var role enums.SenderRole
		if req.SenderRole != nil {
			role = enums.SenderRole(strings.ToUpper(strings.TrimSpace(*req.SenderRole)))
		}
		msg, err := svc.PostMessage(ctx, refundsvc.PostMessageInput{
			RefundID:   refundID,
			SenderRole: role,
			Text:       validators.SanitizeString(req.Text, maxMessageLength),
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, msg)
	}
}
