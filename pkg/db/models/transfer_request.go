package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// TransferRequest is an approval-gated request to move stock between two
// locations. FromLocationID may be nil, meaning "any warehouse with sufficient
// stock"; the approver's transaction resolves it and records the selection.
type TransferRequest struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID          uuid.UUID                   `gorm:"column:org_id;type:uuid;not null;index:idx_transfer_requests_org_status"`
	ProductID      uuid.UUID                   `gorm:"column:product_id;type:uuid;not null"`
	Quantity       int64                       `gorm:"column:quantity;not null"`
	FromLocationID *uuid.UUID                  `gorm:"column:from_location_id;type:uuid"`
	ToLocationID   uuid.UUID                   `gorm:"column:to_location_id;type:uuid;not null"`
	Status         enums.TransferRequestStatus `gorm:"column:status;type:transfer_request_status;not null;default:'pending';index:idx_transfer_requests_org_status"`
	RequesterID    uuid.UUID                   `gorm:"column:requester_id;type:uuid;not null"`
	ApproverID     *uuid.UUID                  `gorm:"column:approver_id;type:uuid"`
	MovementID     *uuid.UUID                  `gorm:"column:movement_id;type:uuid"`
	Note           *string                     `gorm:"column:note"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
	DecidedAt      *time.Time                  `gorm:"column:decided_at"`
}
