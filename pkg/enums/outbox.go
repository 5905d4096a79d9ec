package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateMovement        OutboxAggregateType = "movement"
	AggregateTransferRequest OutboxAggregateType = "transfer_request"
	AggregateAlert           OutboxAggregateType = "alert"
	AggregateStockCell       OutboxAggregateType = "stock_cell"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateMovement,
	AggregateTransferRequest,
	AggregateAlert,
	AggregateStockCell,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
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

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventMovementRecorded        OutboxEventType = "movement_recorded"
	EventTransferRequestCreated  OutboxEventType = "transfer_request_created"
	EventTransferRequestApproved OutboxEventType = "transfer_request_approved"
	EventTransferRequestRejected OutboxEventType = "transfer_request_rejected"
	EventTransferRequestCanceled OutboxEventType = "transfer_request_canceled"
	EventAlertRaised             OutboxEventType = "alert_raised"
	EventAlertResolved           OutboxEventType = "alert_resolved"
)

var validOutboxEventTypes = []OutboxEventType{
	EventMovementRecorded,
	EventTransferRequestCreated,
	EventTransferRequestApproved,
	EventTransferRequestRejected,
	EventTransferRequestCanceled,
	EventAlertRaised,
	EventAlertResolved,
}

// AllOutboxEventTypes returns every event type the platform emits, in a copy
// callers may reorder freely.
func AllOutboxEventTypes() []OutboxEventType {
	out := make([]OutboxEventType, len(validOutboxEventTypes))
	copy(out, validOutboxEventTypes)
	return out
}

// IsValid reports whether the value matches the canonical event_type enum.
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
