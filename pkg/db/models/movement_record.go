package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// MovementRecord is an immutable audit entry describing one quantity change.
// Rows are written only by the movement engine, inside the same transaction as
// the cell adjustment, and are never updated or deleted.
type MovementRecord struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID          uuid.UUID          `gorm:"column:org_id;type:uuid;not null;index:idx_movement_records_org_time"`
	ProductID      uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_movement_records_product"`
	FromLocationID *uuid.UUID         `gorm:"column:from_location_id;type:uuid;index:idx_movement_records_from"`
	ToLocationID   *uuid.UUID         `gorm:"column:to_location_id;type:uuid;index:idx_movement_records_to"`
	Quantity       int64              `gorm:"column:quantity;not null"`
	Kind           enums.MovementKind `gorm:"column:kind;type:movement_kind;not null"`
	Reason         *string            `gorm:"column:reason"`
	Reference      *string            `gorm:"column:reference"`
	PerformedBy    uuid.UUID          `gorm:"column:performed_by;type:uuid;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_movement_records_org_time"`
}
