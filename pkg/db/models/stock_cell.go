package models

import (
	"time"

	"github.com/google/uuid"
)

// StockCell holds the current quantity for one (product, location, org) triple.
// Rows are created lazily on first movement into the pair and mutated only by the
// movement engine. quantity must always equal the signed sum of the cell's
// movement history.
type StockCell struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID       uuid.UUID `gorm:"column:org_id;type:uuid;not null;uniqueIndex:ux_stock_cells_org_product_location"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_stock_cells_org_product_location"`
	LocationID  uuid.UUID `gorm:"column:location_id;type:uuid;not null;uniqueIndex:ux_stock_cells_org_product_location"`
	Quantity    int64     `gorm:"column:quantity;not null;default:0"`
	ReservedQty int64     `gorm:"column:reserved_qty;not null;default:0"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
