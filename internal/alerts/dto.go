package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// AlertDTO is the API shape of a stock alert.
type AlertDTO struct {
	ID         uuid.UUID         `json:"id"`
	OrgID      uuid.UUID         `json:"orgId"`
	ProductID  uuid.UUID         `json:"productId"`
	LocationID uuid.UUID         `json:"locationId"`
	Type       enums.AlertType   `json:"type"`
	Status     enums.AlertStatus `json:"status"`
	Quantity   int64             `json:"quantity"`
	Threshold  *int64            `json:"threshold,omitempty"`
	RaisedAt   time.Time         `json:"raisedAt"`
	ResolvedAt *time.Time        `json:"resolvedAt,omitempty"`
}

// AlertChange records one evaluator action: an alert raised or resolved.
type AlertChange struct {
	Action string   `json:"action"` // "raised" or "resolved"
	Alert  AlertDTO `json:"alert"`
}

const (
	ChangeRaised   = "raised"
	ChangeResolved = "resolved"
)

// ListAlertsInput filters and paginates alerts.
type ListAlertsInput struct {
	OrgID  uuid.UUID
	Status *enums.AlertStatus
	Type   *enums.AlertType
	Limit  int
	Cursor string
}

// AlertListResult carries one page of alerts plus the cursor for the next.
type AlertListResult struct {
	Alerts     []AlertDTO `json:"alerts"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func toAlertDTO(alert models.Alert) AlertDTO {
	return AlertDTO{
		ID:         alert.ID,
		OrgID:      alert.OrgID,
		ProductID:  alert.ProductID,
		LocationID: alert.LocationID,
		Type:       alert.Type,
		Status:     alert.Status,
		Quantity:   alert.Quantity,
		Threshold:  alert.Threshold,
		RaisedAt:   alert.RaisedAt,
		ResolvedAt: alert.ResolvedAt,
	}
}
