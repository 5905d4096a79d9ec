package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
	"github.com/stocklane/stocklane-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service evaluates stock levels into alerts. Evaluation runs on its own
// schedule, never inside a movement transaction, so a broken evaluator can
// never block stock from moving.
type Service interface {
	Evaluate(ctx context.Context, orgID uuid.UUID) ([]AlertChange, error)
	Get(ctx context.Context, orgID, alertID uuid.UUID) (*AlertDTO, error)
	List(ctx context.Context, input ListAlertsInput) (*AlertListResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the alert evaluator with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alert repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

type cellState struct {
	alertType enums.AlertType
	quantity  int64
	threshold *int64
}

// classify maps one cell to its desired alert type. Out of stock wins over low
// stock; overstock only applies when the product declares a maximum.
func classify(snapshot CellSnapshot) *cellState {
	switch {
	case snapshot.Quantity == 0:
		threshold := int64(0)
		return &cellState{alertType: enums.AlertTypeOutOfStock, quantity: snapshot.Quantity, threshold: &threshold}
	case snapshot.Quantity <= snapshot.MinStock:
		threshold := snapshot.MinStock
		return &cellState{alertType: enums.AlertTypeLowStock, quantity: snapshot.Quantity, threshold: &threshold}
	case snapshot.MaxStock != nil && snapshot.Quantity > *snapshot.MaxStock:
		threshold := *snapshot.MaxStock
		return &cellState{alertType: enums.AlertTypeOverstock, quantity: snapshot.Quantity, threshold: &threshold}
	default:
		return nil
	}
}

type cellRef struct {
	productID  uuid.UUID
	locationID uuid.UUID
}

// Evaluate diffs the desired alert set against the active one: raises alerts
// for newly bad cells, resolves alerts whose condition cleared or changed
// type, and leaves matching active alerts alone.
func (s *service) Evaluate(ctx context.Context, orgID uuid.UUID) ([]AlertChange, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}

	var changes []AlertChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		snapshots, err := s.repo.CellSnapshotsTx(ctx, tx, orgID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cell snapshots")
		}
		active, err := s.repo.ListActiveTx(ctx, tx, orgID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active alerts")
		}

		desired := make(map[cellRef]*cellState, len(snapshots))
		for _, snapshot := range snapshots {
			if state := classify(snapshot); state != nil {
				desired[cellRef{snapshot.ProductID, snapshot.LocationID}] = state
			}
		}

		now := time.Now().UTC()
		covered := make(map[cellRef]bool, len(active))
		for _, alert := range active {
			ref := cellRef{alert.ProductID, alert.LocationID}
			state, stillBad := desired[ref]
			if stillBad && state.alertType == alert.Type {
				covered[ref] = true
				continue
			}
			resolved, err := s.repo.ResolveTx(ctx, tx, orgID, alert.ID, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
			}
			if !resolved {
				continue
			}
			alert.Status = enums.AlertStatusResolved
			alert.ResolvedAt = &now
			if err := s.emitResolved(ctx, tx, alert, now); err != nil {
				return err
			}
			changes = append(changes, AlertChange{Action: ChangeResolved, Alert: toAlertDTO(alert)})
		}

		for _, snapshot := range snapshots {
			ref := cellRef{snapshot.ProductID, snapshot.LocationID}
			state, bad := desired[ref]
			if !bad || covered[ref] {
				continue
			}
			alert := models.Alert{
				ID:         uuid.New(),
				OrgID:      orgID,
				ProductID:  snapshot.ProductID,
				LocationID: snapshot.LocationID,
				Type:       state.alertType,
				Status:     enums.AlertStatusActive,
				Quantity:   state.quantity,
				Threshold:  state.threshold,
				RaisedAt:   now,
			}
			if err := s.repo.CreateTx(ctx, tx, &alert); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create alert")
			}
			if err := s.emitRaised(ctx, tx, alert); err != nil {
				return err
			}
			changes = append(changes, AlertChange{Action: ChangeRaised, Alert: toAlertDTO(alert)})
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "evaluate alerts")
	}
	return changes, nil
}

func (s *service) emitRaised(ctx context.Context, tx *gorm.DB, alert models.Alert) error {
	threshold := int64(0)
	if alert.Threshold != nil {
		threshold = *alert.Threshold
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventAlertRaised,
		AggregateType: enums.AggregateAlert,
		AggregateID:   alert.ID,
		Version:       1,
		Data: payloads.AlertRaisedEvent{
			AlertID:    alert.ID,
			OrgID:      alert.OrgID,
			ProductID:  alert.ProductID,
			LocationID: alert.LocationID,
			Type:       alert.Type,
			Quantity:   alert.Quantity,
			Threshold:  threshold,
			RaisedAt:   alert.RaisedAt,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit alert raised event")
	}
	return nil
}

func (s *service) emitResolved(ctx context.Context, tx *gorm.DB, alert models.Alert, resolvedAt time.Time) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventAlertResolved,
		AggregateType: enums.AggregateAlert,
		AggregateID:   alert.ID,
		Version:       1,
		Data: payloads.AlertResolvedEvent{
			AlertID:    alert.ID,
			OrgID:      alert.OrgID,
			ProductID:  alert.ProductID,
			LocationID: alert.LocationID,
			Type:       alert.Type,
			Quantity:   alert.Quantity,
			ResolvedAt: resolvedAt,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit alert resolved event")
	}
	return nil
}

func (s *service) Get(ctx context.Context, orgID, alertID uuid.UUID) (*AlertDTO, error) {
	if orgID == uuid.Nil || alertID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id and alert id required")
	}
	alert, err := s.repo.FindByID(ctx, orgID, alertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	dto := toAlertDTO(*alert)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListAlertsInput) (*AlertListResult, error) {
	if input.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid alert status %q", *input.Status))
	}
	if input.Type != nil && !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid alert type %q", *input.Type))
	}
	alerts, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	dtos := make([]AlertDTO, 0, len(alerts))
	for _, alert := range alerts {
		dtos = append(dtos, toAlertDTO(alert))
	}
	return &AlertListResult{Alerts: dtos, NextCursor: nextCursor}, nil
}
