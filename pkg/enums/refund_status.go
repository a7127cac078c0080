package enums

import (
	"fmt"
	"strings"
)

// RefundStatus tracks a refund claim. APPROVED and REJECTED are terminal.
type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusApproved RefundStatus = "APPROVED"
	RefundStatusRejected RefundStatus = "REJECTED"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusApproved,
	RefundStatusRejected,
}

// String implements fmt.Stringer.
func (r RefundStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundStatus.
func (r RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsDecision reports whether the value closes a refund.
func (r RefundStatus) IsDecision() bool {
	return r == RefundStatusApproved || r == RefundStatusRejected
}

// ParseRefundStatus converts raw input into a RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	normalized := RefundStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}

// SenderRole identifies who wrote a refund thread message.
type SenderRole string

const (
	SenderRoleAdmin  SenderRole = "ADMIN"
	SenderRoleVendor SenderRole = "VENDOR"
)

// IsValid reports whether the value is a known SenderRole.
func (s SenderRole) IsValid() bool {
	return s == SenderRoleAdmin || s == SenderRoleVendor
}

// ParseSenderRole converts raw input into a SenderRole.
func ParseSenderRole(value string) (SenderRole, error) {
	normalized := SenderRole(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid sender role %q", value)
}
