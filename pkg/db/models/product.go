package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry thresholds and prices hang off. MinStock/MaxStock
// drive the alert evaluator; prices are consumed by alerting/valuation surfaces
// and never mutated by the movement engine.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID     uuid.UUID       `gorm:"column:org_id;type:uuid;not null;uniqueIndex:ux_products_org_sku"`
	SKU       string          `gorm:"column:sku;not null;uniqueIndex:ux_products_org_sku"`
	Name      string          `gorm:"column:name;not null"`
	Unit      string          `gorm:"column:unit;not null;default:'unit'"`
	MinStock  int64           `gorm:"column:min_stock;not null;default:0"`
	MaxStock  *int64          `gorm:"column:max_stock"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	CostPrice decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
