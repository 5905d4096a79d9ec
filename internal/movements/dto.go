package movements

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// ApplyMovementInput is the command shape the engine executes.
type ApplyMovementInput struct {
	OrgID          uuid.UUID
	ProductID      uuid.UUID
	FromLocationID *uuid.UUID
	ToLocationID   *uuid.UUID
	Quantity       int64
	Kind           enums.MovementKind
	Reason         *string
	Reference      *string
	PerformedBy    uuid.UUID
	ActorRole      string
}

// MovementDTO is the transport-facing view of a movement record.
type MovementDTO struct {
	ID             uuid.UUID          `json:"id"`
	OrgID          uuid.UUID          `json:"org_id"`
	ProductID      uuid.UUID          `json:"product_id"`
	FromLocationID *uuid.UUID         `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID         `json:"to_location_id,omitempty"`
	Quantity       int64              `json:"quantity"`
	Kind           enums.MovementKind `json:"kind"`
	Reason         *string            `json:"reason,omitempty"`
	Reference      *string            `json:"reference,omitempty"`
	PerformedBy    uuid.UUID          `json:"performed_by"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ListMovementsInput carries filters and cursor pagination for the movement log.
type ListMovementsInput struct {
	OrgID      uuid.UUID
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Kind       *enums.MovementKind
	Limit      int
	Cursor     string
}

// MovementListResult is one page of the movement log, newest first.
type MovementListResult struct {
	Movements  []MovementDTO `json:"movements"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func toMovementDTO(record models.MovementRecord) MovementDTO {
	return MovementDTO{
		ID:             record.ID,
		OrgID:          record.OrgID,
		ProductID:      record.ProductID,
		FromLocationID: record.FromLocationID,
		ToLocationID:   record.ToLocationID,
		Quantity:       record.Quantity,
		Kind:           record.Kind,
		Reason:         record.Reason,
		Reference:      record.Reference,
		PerformedBy:    record.PerformedBy,
		CreatedAt:      record.CreatedAt,
	}
}
