package orders

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/api/middleware"
	"github.com/angelmondragon/vendorhub-backend/api/responses"
	"github.com/angelmondragon/vendorhub-backend/api/validators"
	"github.com/angelmondragon/vendorhub-backend/internal/dispatch"
	ordersvc "github.com/angelmondragon/vendorhub-backend/internal/orders"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

type orderLineRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	CustomerID         *string            `json:"customerId" validate:"omitempty,uuid"`
	PaymentMethod      string             `json:"paymentMethod" validate:"required"`
	ExpectedDeliveryAt *time.Time         `json:"expectedDeliveryAt"`
	Lines              []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Create checks out a cart into one order. Customers order for themselves;
// admins name the customer.
func Create(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customerID := actor.ID
		if req.CustomerID != nil {
			customerID, err = uuid.Parse(*req.CustomerID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customerId"))
				return
			}
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paymentMethod"))
			return
		}

		lines := make([]ordersvc.CartLine, 0, len(req.Lines))
		for i, line := range req.Lines {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid productId").WithDetails(map[string]any{"line": i}))
				return
			}
			lines = append(lines, ordersvc.CartLine{ProductID: productID, Quantity: line.Quantity})
		}

		order, err := svc.CreateOrder(ctx, ordersvc.CreateOrderInput{
			CustomerID:         customerID,
			PaymentMethod:      method,
			ExpectedDeliveryAt: req.ExpectedDeliveryAt,
			Lines:              lines,
			Actor:              actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns an order with its items, scoped to the caller.
func Detail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		order, err := svc.GetOrder(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus moves the admin-facing order status.
func SetStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		var req statusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := svc.SetAdminStatus(ctx, ordersvc.SetAdminStatusInput{OrderID: orderID, Status: status, Actor: actor})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type deliveryRequest struct {
	ExpectedDeliveryAt *time.Time `json:"expectedDeliveryAt"`
}

// SetDelivery sets or clears the promised delivery date.
func SetDelivery(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		var req deliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.SetExpectedDelivery(ctx, ordersvc.SetExpectedDeliveryInput{
			OrderID:            orderID,
			ExpectedDeliveryAt: req.ExpectedDeliveryAt,
			Actor:              actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TransitionItem moves one order item through the fulfillment lifecycle.
func TransitionItem(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req statusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseItemStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		item, err := svc.TransitionItem(ctx, ordersvc.TransitionItemInput{
			OrderID: orderID,
			ItemID:  itemID,
			Status:  status,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// Dispatch issues, or returns the existing, courier code for one vendor's
// batch on an order.
func Dispatch(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
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
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		code, err := svc.IssueCode(ctx, dispatch.IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: actor})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if code.Issued {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, code)
	}
}
