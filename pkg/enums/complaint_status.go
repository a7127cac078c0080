package enums

import (
	"fmt"
	"strings"
)

// ComplaintStatus tracks an order level escalation.
type ComplaintStatus string

const (
	ComplaintStatusOpen     ComplaintStatus = "OPEN"
	ComplaintStatusInReview ComplaintStatus = "IN_REVIEW"
	ComplaintStatusResolved ComplaintStatus = "RESOLVED"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusInReview,
	ComplaintStatusResolved,
}

func (c ComplaintStatus) String() string {
	return string(c)
}

func (c ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	candidate := ComplaintStatus(normalized)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid complaint status %q", value)
}
