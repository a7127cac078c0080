package enums

import (
	"fmt"
	"strings"
)

// ItemStatus is the fulfillment state of one vendor line within an order.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusProcessing ItemStatus = "PROCESSING"
	ItemStatusShipped    ItemStatus = "SHIPPED"
	ItemStatusDelivered  ItemStatus = "DELIVERED"
	ItemStatusRejected   ItemStatus = "REJECTED"
	ItemStatusCancelled  ItemStatus = "CANCELLED"
)

var validItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusProcessing,
	ItemStatusShipped,
	ItemStatusDelivered,
	ItemStatusRejected,
	ItemStatusCancelled,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusDelivered || s == ItemStatusRejected || s == ItemStatusCancelled
}

// IsWithdrawn reports whether the item dropped out of fulfillment.
func (s ItemStatus) IsWithdrawn() bool {
	return s == ItemStatusRejected || s == ItemStatusCancelled
}

// ParseItemStatus converts raw input into an ItemStatus. Input is
// case-insensitive.
func ParseItemStatus(value string) (ItemStatus, error) {
	normalized := ItemStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
