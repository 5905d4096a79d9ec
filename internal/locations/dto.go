package locations

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// LocationDTO is the transport-facing view of a location.
type LocationDTO struct {
	ID        uuid.UUID          `json:"id"`
	OrgID     uuid.UUID          `json:"org_id"`
	Type      enums.LocationType `json:"type"`
	Name      string             `json:"name"`
	Address   *string            `json:"address,omitempty"`
	Capacity  *int64             `json:"capacity,omitempty"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toLocationDTO(location models.Location) LocationDTO {
	return LocationDTO{
		ID:        location.ID,
		OrgID:     location.OrgID,
		Type:      location.Type,
		Name:      location.Name,
		Address:   location.Address,
		Capacity:  location.Capacity,
		IsActive:  location.IsActive,
		CreatedAt: location.CreatedAt,
		UpdatedAt: location.UpdatedAt,
	}
}
