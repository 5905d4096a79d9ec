package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
)

// CellDTO is the transport-facing view of a stock cell.
type CellDTO struct {
	ID          uuid.UUID `json:"id,omitempty"`
	OrgID       uuid.UUID `json:"org_id"`
	ProductID   uuid.UUID `json:"product_id"`
	LocationID  uuid.UUID `json:"location_id"`
	Quantity    int64     `json:"quantity"`
	ReservedQty int64     `json:"reserved_qty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCellDTO(cell models.StockCell) CellDTO {
	return CellDTO{
		ID:          cell.ID,
		OrgID:       cell.OrgID,
		ProductID:   cell.ProductID,
		LocationID:  cell.LocationID,
		Quantity:    cell.Quantity,
		ReservedQty: cell.ReservedQty,
		UpdatedAt:   cell.UpdatedAt,
	}
}
