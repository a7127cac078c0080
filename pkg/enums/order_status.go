package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the coarse, administrator controlled state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusApproved,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order is closed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Rank orders the forward chain PENDING < APPROVED < SHIPPED < DELIVERED.
// CANCELLED sits outside the chain and ranks -1.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusApproved:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	default:
		return -1
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
