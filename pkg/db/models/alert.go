package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// Alert is a derived signal comparing a stock cell to the product thresholds.
// It is never authoritative: the evaluator can always recompute it from
// StockCell + Product.
type Alert struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID      uuid.UUID         `gorm:"column:org_id;type:uuid;not null;index:idx_alerts_org"`
	ProductID  uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:idx_alerts_cell"`
	LocationID uuid.UUID         `gorm:"column:location_id;type:uuid;not null;index:idx_alerts_cell"`
	Type       enums.AlertType   `gorm:"column:type;type:alert_type;not null"`
	Status     enums.AlertStatus `gorm:"column:status;type:alert_status;not null;default:'active'"`
	Quantity   int64             `gorm:"column:quantity;not null"`
	Threshold  *int64            `gorm:"column:threshold"`
	RaisedAt   time.Time         `gorm:"column:raised_at;autoCreateTime"`
	ResolvedAt *time.Time        `gorm:"column:resolved_at"`
}
