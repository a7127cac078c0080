package orders

import (
	"testing"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

func TestDeriveStatus(t *testing.T) {
	const (
		pending    = enums.ItemStatusPending
		processing = enums.ItemStatusProcessing
		shipped    = enums.ItemStatusShipped
		delivered  = enums.ItemStatusDelivered
		rejected   = enums.ItemStatusRejected
		cancelled  = enums.ItemStatusCancelled
	)
	tests := []struct {
		name     string
		admin    enums.OrderStatus
		statuses []enums.ItemStatus
		want     enums.OrderStatus
	}{
		{"all withdrawn", enums.OrderStatusApproved, []enums.ItemStatus{rejected, cancelled}, enums.OrderStatusCancelled},
		{"no items", enums.OrderStatusPending, nil, enums.OrderStatusCancelled},
		{"all delivered", enums.OrderStatusShipped, []enums.ItemStatus{delivered, delivered}, enums.OrderStatusDelivered},
		{"delivered ignoring withdrawn", enums.OrderStatusApproved, []enums.ItemStatus{delivered, rejected}, enums.OrderStatusDelivered},
		{"admin status while active", enums.OrderStatusApproved, []enums.ItemStatus{pending, processing}, enums.OrderStatusApproved},
		{"pending admin", enums.OrderStatusPending, []enums.ItemStatus{shipped}, enums.OrderStatusPending},
		{"delivered and pending under pending admin", enums.OrderStatusPending, []enums.ItemStatus{delivered, pending}, enums.OrderStatusPending},
		{"delivered and pending under delivered admin", enums.OrderStatusDelivered, []enums.ItemStatus{delivered, pending}, enums.OrderStatusShipped},
		{"delivered admin clamped to shipped", enums.OrderStatusDelivered, []enums.ItemStatus{delivered, shipped}, enums.OrderStatusShipped},
		{"cancelled admin with shipped items", enums.OrderStatusCancelled, []enums.ItemStatus{cancelled, shipped}, enums.OrderStatusShipped},
		{"cancelled admin with processing items", enums.OrderStatusCancelled, []enums.ItemStatus{processing}, enums.OrderStatusApproved},
		{"cancelled admin with pending items", enums.OrderStatusCancelled, []enums.ItemStatus{pending}, enums.OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.admin, tt.statuses); got != tt.want {
				t.Fatalf("DeriveStatus(%s, %v) = %s, want %s", tt.admin, tt.statuses, got, tt.want)
			}
		})
	}
}

func TestCanTransitionTable(t *testing.T) {
	all := []enums.ItemStatus{
		enums.ItemStatusPending,
		enums.ItemStatusProcessing,
		enums.ItemStatusShipped,
		enums.ItemStatusDelivered,
		enums.ItemStatusRejected,
		enums.ItemStatusCancelled,
	}
	legal := map[[2]enums.ItemStatus]bool{
		{enums.ItemStatusPending, enums.ItemStatusProcessing}:   true,
		{enums.ItemStatusPending, enums.ItemStatusRejected}:     true,
		{enums.ItemStatusPending, enums.ItemStatusCancelled}:    true,
		{enums.ItemStatusProcessing, enums.ItemStatusShipped}:   true,
		{enums.ItemStatusProcessing, enums.ItemStatusRejected}:  true,
		{enums.ItemStatusProcessing, enums.ItemStatusCancelled}: true,
		{enums.ItemStatusShipped, enums.ItemStatusDelivered}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]enums.ItemStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanSetAdminStatus(t *testing.T) {
	tests := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusApproved, true},
		{enums.OrderStatusApproved, enums.OrderStatusShipped, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusShipped, enums.OrderStatusApproved, false},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, true},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
		{enums.OrderStatusPending, enums.OrderStatus("LOST"), false},
	}
	for _, tt := range tests {
		if got := canSetAdminStatus(tt.from, tt.to); got != tt.want {
			t.Fatalf("canSetAdminStatus(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
