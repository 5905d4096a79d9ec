package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
)

// CreateProductInput registers a new product in the catalog.
type CreateProductInput struct {
	OrgID     uuid.UUID
	SKU       string
	Name      string
	Unit      string
	MinStock  int64
	MaxStock  *int64
	UnitPrice decimal.Decimal
	CostPrice decimal.Decimal
}

// UpdateProductInput changes descriptive fields. Nil means "leave unchanged".
type UpdateProductInput struct {
	OrgID     uuid.UUID
	ProductID uuid.UUID
	Name      *string
	Unit      *string
	UnitPrice *decimal.Decimal
	CostPrice *decimal.Decimal
}

// UpdateThresholdsInput changes the alerting thresholds for a product.
type UpdateThresholdsInput struct {
	OrgID     uuid.UUID
	ProductID uuid.UUID
	MinStock  int64
	MaxStock  *int64
}

// ListProductsInput filters and paginates the catalog.
type ListProductsInput struct {
	OrgID      uuid.UUID
	ActiveOnly bool
	Limit      int
	Cursor     string
}

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID        uuid.UUID       `json:"id"`
	OrgID     uuid.UUID       `json:"orgId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	MinStock  int64           `json:"minStock"`
	MaxStock  *int64          `json:"maxStock,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	CostPrice decimal.Decimal `json:"costPrice"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ProductListResult carries one page of products plus the cursor for the next.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func toProductDTO(product models.Product) ProductDTO {
	return ProductDTO{
		ID:        product.ID,
		OrgID:     product.OrgID,
		SKU:       product.SKU,
		Name:      product.Name,
		Unit:      product.Unit,
		MinStock:  product.MinStock,
		MaxStock:  product.MaxStock,
		UnitPrice: product.UnitPrice,
		CostPrice: product.CostPrice,
		IsActive:  product.IsActive,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
