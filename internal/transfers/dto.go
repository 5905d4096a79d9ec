package transfers

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// CreateTransferInput opens a new pending transfer request.
type CreateTransferInput struct {
	OrgID          uuid.UUID
	ProductID      uuid.UUID
	FromLocationID *uuid.UUID // nil means "any warehouse", resolved at approval time
	ToLocationID   uuid.UUID
	Quantity       int64
	Note           *string
	RequestedBy    uuid.UUID
	ActorRole      string
}

// DecideTransferInput approves, rejects, or cancels a pending request.
type DecideTransferInput struct {
	OrgID     uuid.UUID
	RequestID uuid.UUID
	DecidedBy uuid.UUID
	ActorRole string
	Note      *string
}

// ListTransfersInput filters and paginates transfer requests.
type ListTransfersInput struct {
	OrgID  uuid.UUID
	Status *enums.TransferRequestStatus
	Limit  int
	Cursor string
}

// TransferRequestDTO is the API shape of a transfer request.
type TransferRequestDTO struct {
	ID             uuid.UUID                   `json:"id"`
	OrgID          uuid.UUID                   `json:"orgId"`
	ProductID      uuid.UUID                   `json:"productId"`
	Quantity       int64                       `json:"quantity"`
	FromLocationID *uuid.UUID                  `json:"fromLocationId,omitempty"`
	ToLocationID   uuid.UUID                   `json:"toLocationId"`
	Status         enums.TransferRequestStatus `json:"status"`
	RequesterID    uuid.UUID                   `json:"requesterId"`
	ApproverID     *uuid.UUID                  `json:"approverId,omitempty"`
	MovementID     *uuid.UUID                  `json:"movementId,omitempty"`
	Note           *string                     `json:"note,omitempty"`
	CreatedAt      time.Time                   `json:"createdAt"`
	DecidedAt      *time.Time                  `json:"decidedAt,omitempty"`
}

// TransferListResult carries one page of requests plus the cursor for the next.
type TransferListResult struct {
	Requests   []TransferRequestDTO `json:"requests"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

func toTransferRequestDTO(request models.TransferRequest) TransferRequestDTO {
	return TransferRequestDTO{
		ID:             request.ID,
		OrgID:          request.OrgID,
		ProductID:      request.ProductID,
		Quantity:       request.Quantity,
		FromLocationID: request.FromLocationID,
		ToLocationID:   request.ToLocationID,
		Status:         request.Status,
		RequesterID:    request.RequesterID,
		ApproverID:     request.ApproverID,
		MovementID:     request.MovementID,
		Note:           request.Note,
		CreatedAt:      request.CreatedAt,
		DecidedAt:      request.DecidedAt,
	}
}
