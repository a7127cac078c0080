package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateOrderItem OutboxAggregateType = "order_item"
	AggregateDocument  OutboxAggregateType = "generated_document"
	AggregateRefund    OutboxAggregateType = "refund_request"
	AggregateComplaint OutboxAggregateType = "complaint"
	AggregateProduct   OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateOrderItem,
	AggregateDocument,
	AggregateRefund,
	AggregateComplaint,
	AggregateProduct,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated            OutboxEventType = "order_created"
	EventOrderStatusChanged      OutboxEventType = "order_status_changed"
	EventOrderItemStatusChanged  OutboxEventType = "order_item_status_changed"
	EventDispatchCodeIssued      OutboxEventType = "dispatch_code_issued"
	EventDocumentGenerated       OutboxEventType = "document_generated"
	EventRefundRequested         OutboxEventType = "refund_requested"
	EventRefundDecided           OutboxEventType = "refund_decided"
	EventRefundMessagePosted     OutboxEventType = "refund_message_posted"
	EventComplaintOpened         OutboxEventType = "complaint_opened"
	EventComplaintStatusChanged  OutboxEventType = "complaint_status_changed"
	EventProductCommissionUpdate OutboxEventType = "product_commission_updated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderItemStatusChanged,
	EventDispatchCodeIssued,
	EventDocumentGenerated,
	EventRefundRequested,
	EventRefundDecided,
	EventRefundMessagePosted,
	EventComplaintOpened,
	EventComplaintStatusChanged,
	EventProductCommissionUpdate,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why an event left the publish loop for good.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUnroutable means the row could not be decoded or has no
	// registered topic.
	OutboxDLQReasonUnroutable   OutboxDLQErrorReason = "unroutable"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonUnroutable, OutboxDLQReasonNonRetryable, OutboxDLQReasonMaxAttempts:
		return true
	}
	return false
}
