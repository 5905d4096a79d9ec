package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// MovementRecordedEvent is emitted once a movement commits to the ledger.
type MovementRecordedEvent struct {
	MovementID     uuid.UUID          `json:"movement_id"`
	OrgID          uuid.UUID          `json:"org_id"`
	ProductID      uuid.UUID          `json:"product_id"`
	FromLocationID *uuid.UUID         `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID         `json:"to_location_id,omitempty"`
	Kind           enums.MovementKind `json:"kind"`
	Quantity       int64              `json:"quantity"`
	Reason         string             `json:"reason,omitempty"`
	Reference      string             `json:"reference,omitempty"`
	PerformedBy    uuid.UUID          `json:"performed_by"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// TransferRequestCreatedEvent signals a new pending transfer request.
type TransferRequestCreatedEvent struct {
	RequestID      uuid.UUID  `json:"request_id"`
	OrgID          uuid.UUID  `json:"org_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	FromLocationID *uuid.UUID `json:"from_location_id,omitempty"`
	ToLocationID   uuid.UUID  `json:"to_location_id"`
	Quantity       int64      `json:"quantity"`
	RequestedBy    uuid.UUID  `json:"requested_by"`
}

// TransferRequestDecidedEvent covers approval, rejection, and cancellation.
type TransferRequestDecidedEvent struct {
	RequestID      uuid.UUID                   `json:"request_id"`
	OrgID          uuid.UUID                   `json:"org_id"`
	ProductID      uuid.UUID                   `json:"product_id"`
	FromLocationID *uuid.UUID                  `json:"from_location_id,omitempty"`
	ToLocationID   uuid.UUID                   `json:"to_location_id"`
	Quantity       int64                       `json:"quantity"`
	Status         enums.TransferRequestStatus `json:"status"`
	DecidedBy      uuid.UUID                   `json:"decided_by"`
	DecidedAt      time.Time                   `json:"decided_at"`
	MovementID     *uuid.UUID                  `json:"movement_id,omitempty"`
	Reason         string                      `json:"reason,omitempty"`
}

// AlertRaisedEvent is emitted when the evaluator opens a new alert.
type AlertRaisedEvent struct {
	AlertID    uuid.UUID       `json:"alert_id"`
	OrgID      uuid.UUID       `json:"org_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	LocationID uuid.UUID       `json:"location_id"`
	Type       enums.AlertType `json:"type"`
	Quantity   int64           `json:"quantity"`
	Threshold  int64           `json:"threshold"`
	RaisedAt   time.Time       `json:"raised_at"`
}

// AlertResolvedEvent is emitted when a previously active alert clears.
type AlertResolvedEvent struct {
	AlertID    uuid.UUID       `json:"alert_id"`
	OrgID      uuid.UUID       `json:"org_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	LocationID uuid.UUID       `json:"location_id"`
	Type       enums.AlertType `json:"type"`
	Quantity   int64           `json:"quantity"`
	ResolvedAt time.Time       `json:"resolved_at"`
}
