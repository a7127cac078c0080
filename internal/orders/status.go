package orders

import "github.com/angelmondragon/vendorhub-backend/pkg/enums"

// DeriveStatus computes the order status reported to clients from the admin
// set status and the current item statuses. It is never stored.
//
// Withdrawn items (REJECTED, CANCELLED) are ignored. With nothing left the
// order is CANCELLED; when every remaining item is DELIVERED it is DELIVERED.
// Otherwise the admin status is reported, except that a terminal admin status
// is clamped back to what the remaining items support.
func DeriveStatus(admin enums.OrderStatus, statuses []enums.ItemStatus) enums.OrderStatus {
	active := 0
	delivered := 0
	anyShipped := false
	anyProcessing := false
	for _, status := range statuses {
		if status.IsWithdrawn() {
			continue
		}
		active++
		switch status {
		case enums.ItemStatusDelivered:
			delivered++
			anyShipped = true
		case enums.ItemStatusShipped:
			anyShipped = true
		case enums.ItemStatusProcessing:
			anyProcessing = true
		}
	}

	if active == 0 {
		return enums.OrderStatusCancelled
	}
	if delivered == active {
		return enums.OrderStatusDelivered
	}
	if !admin.IsTerminal() && admin.IsValid() {
		return admin
	}
	switch {
	case anyShipped:
		return enums.OrderStatusShipped
	case anyProcessing:
		return enums.OrderStatusApproved
	default:
		return enums.OrderStatusPending
	}
}

// canSetAdminStatus reports whether an administrator may move the coarse
// order status from one value to another. The chain only moves forward and
// CANCELLED is reachable from any open value.
func canSetAdminStatus(from, to enums.OrderStatus) bool {
	if from.IsTerminal() || !to.IsValid() {
		return false
	}
	if to == enums.OrderStatusCancelled {
		return true
	}
	return to.Rank() > from.Rank()
}
