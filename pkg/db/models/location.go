package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// Location is a warehouse or a store owned by an organization; the unit stock is
// tracked against. Capacity is a declared size for warehouses, informational
// only: the movement engine does not reject movements against it.
type Location struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID     uuid.UUID          `gorm:"column:org_id;type:uuid;not null;index:idx_locations_org"`
	Type      enums.LocationType `gorm:"column:type;type:location_type;not null"`
	Name      string             `gorm:"column:name;not null"`
	Address   *string            `gorm:"column:address"`
	Capacity  *int64             `gorm:"column:capacity"`
	IsActive  bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
