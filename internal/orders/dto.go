package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// ItemDTO is one vendor line as returned to clients.
type ItemDTO struct {
	ID                    uuid.UUID        `json:"id"`
	OrderID               uuid.UUID        `json:"order_id"`
	ProductID             uuid.UUID        `json:"product_id"`
	VendorID              uuid.UUID        `json:"vendor_id"`
	ProductName           string           `json:"product_name"`
	Quantity              int              `json:"quantity"`
	UnitPrice             decimal.Decimal  `json:"unit_price"`
	Subtotal              decimal.Decimal  `json:"subtotal"`
	CommissionPercent     decimal.Decimal  `json:"commission_percent"`
	CommissionAmount      decimal.Decimal  `json:"commission_amount"`
	VendorPayout          decimal.Decimal  `json:"vendor_payout"`
	Status                enums.ItemStatus `json:"status"`
	CommissionLockedAt    *time.Time       `json:"commission_locked_at,omitempty"`
	DispatchCode          *string          `json:"dispatch_code,omitempty"`
	DispatchCodeCreatedAt *time.Time       `json:"dispatch_code_created_at,omitempty"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// OrderDTO carries the order with its derived status. AdminStatus is the
// coarse value last set by an administrator.
type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	CustomerID         uuid.UUID           `json:"customer_id"`
	Status             enums.OrderStatus   `json:"status"`
	AdminStatus        enums.OrderStatus   `json:"admin_status"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	ExpectedDeliveryAt *time.Time          `json:"expected_delivery_at,omitempty"`
	VendorIDs          []uuid.UUID         `json:"vendor_ids"`
	Items              []ItemDTO           `json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func newItemDTO(item models.OrderItem) ItemDTO {
	return ItemDTO{
		ID:                    item.ID,
		OrderID:               item.OrderID,
		ProductID:             item.ProductID,
		VendorID:              item.VendorID,
		ProductName:           item.ProductName,
		Quantity:              item.Quantity,
		UnitPrice:             item.UnitPrice,
		Subtotal:              item.Subtotal(),
		CommissionPercent:     item.CommissionPercent,
		CommissionAmount:      item.CommissionAmount,
		VendorPayout:          item.VendorPayout,
		Status:                item.Status,
		CommissionLockedAt:    item.CommissionLockedAt,
		DispatchCode:          item.DispatchCode,
		DispatchCodeCreatedAt: item.DispatchCodeCreatedAt,
		UpdatedAt:             item.UpdatedAt,
	}
}

// newOrderDTO renders the order for viewer. Vendors only see their own lines
// and customers never see dispatch codes; the derived status always covers
// every item.
func newOrderDTO(order models.Order, viewer auth.Actor) OrderDTO {
	dto := OrderDTO{
		ID:                 order.ID,
		CustomerID:         order.CustomerID,
		Status:             DeriveStatus(order.AdminStatus, itemStatuses(order.Items)),
		AdminStatus:        order.AdminStatus,
		TotalAmount:        order.TotalAmount,
		PaymentMethod:      order.PaymentMethod,
		ExpectedDeliveryAt: order.ExpectedDeliveryAt,
		VendorIDs:          vendorIDs(order.Items),
		Items:              make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		if viewer.IsVendor() && !viewer.OwnsVendor(item.VendorID) {
			continue
		}
		itemDTO := newItemDTO(item)
		if viewer.IsCustomer() {
			itemDTO.DispatchCode = nil
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}

func itemStatuses(items []models.OrderItem) []enums.ItemStatus {
	statuses := make([]enums.ItemStatus, 0, len(items))
	for _, item := range items {
		statuses = append(statuses, item.Status)
	}
	return statuses
}

// vendorIDs lists vendors in order of first appearance.
func vendorIDs(items []models.OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		ids = append(ids, item.VendorID)
	}
	return ids
}
