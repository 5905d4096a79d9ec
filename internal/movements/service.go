package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/internal/stock"
	"github.com/stocklane/stocklane-backend/pkg/config"
	dbpkg "github.com/stocklane/stocklane-backend/pkg/db"
	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/metrics"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
	"github.com/stocklane/stocklane-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Product, error)
}

type locationLoader interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Location, error)
}

// Service is the movement engine: the only component that mutates the stock
// table, and always together with exactly one movement record.
type Service interface {
	Apply(ctx context.Context, input ApplyMovementInput) (*MovementDTO, error)
	ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyMovementInput) (*MovementDTO, error)
	Get(ctx context.Context, orgID, movementID uuid.UUID) (*MovementDTO, error)
	List(ctx context.Context, input ListMovementsInput) (*MovementListResult, error)
}

type service struct {
	repo      Repository
	stockRepo stock.Repository
	products  productLoader
	locations locationLoader
	tx        txRunner
	outbox    outboxPublisher
	engineCfg config.EngineConfig
	metrics   *metrics.MovementMetrics
}

// NewService builds the movement engine with the required dependencies.
func NewService(
	repo Repository,
	stockRepo stock.Repository,
	products productLoader,
	locations locationLoader,
	tx txRunner,
	outboxSvc outboxPublisher,
	engineCfg config.EngineConfig,
	movementMetrics *metrics.MovementMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if locations == nil {
		return nil, fmt.Errorf("location loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if engineCfg.RetryAttempts <= 0 {
		engineCfg.RetryAttempts = 3
	}
	return &service{
		repo:      repo,
		stockRepo: stockRepo,
		products:  products,
		locations: locations,
		tx:        tx,
		outbox:    outboxSvc,
		engineCfg: engineCfg,
		metrics:   movementMetrics,
	}, nil
}

// Apply validates the command, then runs the debit/credit/append unit in one
// transaction. Serialization failures are retried a bounded number of times
// before surfacing as a transient error.
func (s *service) Apply(ctx context.Context, input ApplyMovementInput) (*MovementDTO, error) {
	started := time.Now()
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	if s.engineCfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.engineCfg.TxTimeout)
		defer cancel()
	}

	var dto *MovementDTO
	var err error
	for attempt := 0; attempt < s.engineCfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			s.metrics.IncTransientRetry()
			select {
			case <-ctx.Done():
				return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, ctx.Err(), "movement aborted before commit")
			case <-time.After(s.engineCfg.RetryBackoff):
			}
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			dto, txErr = s.execute(ctx, tx, input)
			return txErr
		})
		if err == nil {
			s.metrics.ObserveDuration(input.Kind.String(), time.Since(started))
			s.metrics.IncOutcome(input.Kind.String(), "committed")
			return dto, nil
		}
		if !dbpkg.IsRetryableSerialization(err) {
			break
		}
	}

	if typed := pkgerrors.As(err); typed != nil {
		if typed.Code() == pkgerrors.CodeInsufficient {
			s.metrics.IncInsufficientStock()
			s.metrics.IncOutcome(input.Kind.String(), "insufficient_stock")
		} else {
			s.metrics.IncOutcome(input.Kind.String(), "failed")
		}
		return nil, err
	}
	s.metrics.IncOutcome(input.Kind.String(), "failed")
	if dbpkg.IsRetryableSerialization(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "movement contended, retry the request")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply movement")
}

// ApplyTx runs the validated movement inside a caller-owned transaction. The
// transfer approval flow uses this so the status flip and the movement commit
// together.
func (s *service) ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyMovementInput) (*MovementDTO, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	return s.execute(ctx, tx, input)
}

func (s *service) execute(ctx context.Context, tx *gorm.DB, input ApplyMovementInput) (*MovementDTO, error) {
	if input.FromLocationID != nil {
		key := stock.CellKey{OrgID: input.OrgID, ProductID: input.ProductID, LocationID: *input.FromLocationID}
		ok, err := s.stockRepo.DebitTx(ctx, tx, key, input.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit stock cell")
		}
		if !ok {
			available, qerr := s.stockRepo.QuantityTx(ctx, tx, key)
			if qerr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, qerr, "read stock cell")
			}
			return nil, pkgerrors.New(pkgerrors.CodeInsufficient,
				fmt.Sprintf("insufficient stock: requested %d, available %d", input.Quantity, available)).
				WithDetails(map[string]any{
					"requested": input.Quantity,
					"available": available,
				})
		}
	}

	if input.ToLocationID != nil {
		key := stock.CellKey{OrgID: input.OrgID, ProductID: input.ProductID, LocationID: *input.ToLocationID}
		if err := s.stockRepo.CreditTx(ctx, tx, key, input.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit stock cell")
		}
	}

	record := &models.MovementRecord{
		ID:             uuid.New(),
		OrgID:          input.OrgID,
		ProductID:      input.ProductID,
		FromLocationID: input.FromLocationID,
		ToLocationID:   input.ToLocationID,
		Quantity:       input.Quantity,
		Kind:           input.Kind,
		Reason:         input.Reason,
		Reference:      input.Reference,
		PerformedBy:    input.PerformedBy,
	}
	if err := s.repo.InsertTx(ctx, tx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movement record")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventMovementRecorded,
		AggregateType: enums.AggregateMovement,
		AggregateID:   record.ID,
		Version:       1,
		Actor:         buildActor(input.PerformedBy, input.OrgID, input.ActorRole),
		Data: payloads.MovementRecordedEvent{
			MovementID:     record.ID,
			OrgID:          record.OrgID,
			ProductID:      record.ProductID,
			FromLocationID: record.FromLocationID,
			ToLocationID:   record.ToLocationID,
			Kind:           record.Kind,
			Quantity:       record.Quantity,
			Reason:         derefString(record.Reason),
			Reference:      derefString(record.Reference),
			PerformedBy:    record.PerformedBy,
			OccurredAt:     time.Now().UTC(),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit movement event")
	}

	dto := toMovementDTO(*record)
	return &dto, nil
}

func (s *service) validate(ctx context.Context, input ApplyMovementInput) error {
	if input.OrgID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if input.PerformedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement kind %q", input.Kind))
	}

	switch {
	case input.Kind == enums.MovementKindTransfer:
		if input.FromLocationID == nil || input.ToLocationID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "transfer requires both source and destination")
		}
		if *input.FromLocationID == *input.ToLocationID {
			return pkgerrors.New(pkgerrors.CodeValidation, "source and destination must differ")
		}
	case input.Kind == enums.MovementKindAdjustment:
		if (input.FromLocationID == nil) == (input.ToLocationID == nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment requires exactly one endpoint")
		}
	case input.Kind.RequiresSource():
		if input.FromLocationID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s requires a source location", input.Kind))
		}
		if input.ToLocationID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s takes no destination", input.Kind))
		}
	case input.Kind.RequiresDestination():
		if input.ToLocationID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s requires a destination location", input.Kind))
		}
		if input.FromLocationID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s takes no source", input.Kind))
		}
	}

	if _, err := s.products.FindByID(ctx, input.OrgID, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	for _, locationID := range []*uuid.UUID{input.FromLocationID, input.ToLocationID} {
		if locationID == nil {
			continue
		}
		if _, err := s.locations.FindByID(ctx, input.OrgID, *locationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, orgID, movementID uuid.UUID) (*MovementDTO, error) {
	if orgID == uuid.Nil || movementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id and movement id required")
	}
	record, err := s.repo.FindByID(ctx, orgID, movementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
	}
	dto := toMovementDTO(*record)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListMovementsInput) (*MovementListResult, error) {
	if input.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if input.Kind != nil && !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement kind %q", *input.Kind))
	}
	records, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	dtos := make([]MovementDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, toMovementDTO(record))
	}
	return &MovementListResult{Movements: dtos, NextCursor: nextCursor}, nil
}

func buildActor(userID, orgID uuid.UUID, role string) *outbox.ActorRef {
	org := orgID
	return &outbox.ActorRef{
		UserID: userID,
		OrgID:  &org,
		Role:   role,
	}
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
