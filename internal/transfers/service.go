package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/internal/movements"
	"github.com/stocklane/stocklane-backend/internal/stock"
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

type productLoader interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Product, error)
}

type locationLoader interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Location, error)
}

// movementApplier is the slice of the movement engine the approval flow needs:
// execution inside the approval's own transaction.
type movementApplier interface {
	ApplyTx(ctx context.Context, tx *gorm.DB, input movements.ApplyMovementInput) (*movements.MovementDTO, error)
}

// Service drives the transfer request state machine. A request starts pending
// and ends approved, rejected, or cancelled; approval is the only path that
// moves stock, and it does so in the same transaction as the status flip.
type Service interface {
	Create(ctx context.Context, input CreateTransferInput) (*TransferRequestDTO, error)
	Approve(ctx context.Context, input DecideTransferInput) (*TransferRequestDTO, error)
	Reject(ctx context.Context, input DecideTransferInput) (*TransferRequestDTO, error)
	Cancel(ctx context.Context, input DecideTransferInput) (*TransferRequestDTO, error)
	Get(ctx context.Context, orgID, requestID uuid.UUID) (*TransferRequestDTO, error)
	List(ctx context.Context, input ListTransfersInput) (*TransferListResult, error)
}

type service struct {
	repo      Repository
	engine    movementApplier
	stockRepo stock.Repository
	products  productLoader
	locations locationLoader
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds the transfer request service with the required dependencies.
func NewService(
	repo Repository,
	engine movementApplier,
	stockRepo stock.Repository,
	products productLoader,
	locations locationLoader,
	tx txRunner,
	outboxSvc outboxPublisher,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transfer repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("movement engine required")
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
	return &service{
		repo:      repo,
		engine:    engine,
		stockRepo: stockRepo,
		products:  products,
		locations: locations,
		tx:        tx,
		outbox:    outboxSvc,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateTransferInput) (*TransferRequestDTO, error) {
	if input.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if input.RequestedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ToLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination location required")
	}
	if input.FromLocationID != nil && *input.FromLocationID == input.ToLocationID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination must differ")
	}

	if _, err := s.products.FindByID(ctx, input.OrgID, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if _, err := s.locations.FindByID(ctx, input.OrgID, input.ToLocationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "destination location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load destination location")
	}
	if input.FromLocationID != nil {
		if _, err := s.locations.FindByID(ctx, input.OrgID, *input.FromLocationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "source location not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load source location")
		}
	}

	request := &models.TransferRequest{
		ID:             uuid.New(),
		OrgID:          input.OrgID,
		ProductID:      input.ProductID,
		Quantity:       input.Quantity,
		FromLocationID: input.FromLocationID,
		ToLocationID:   input.ToLocationID,
		Status:         enums.TransferRequestStatusPending,
		RequesterID:    input.RequestedBy,
		Note:           input.Note,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(ctx, tx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer request")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventTransferRequestCreated,
			AggregateType: enums.AggregateTransferRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         buildActor(input.RequestedBy, input.OrgID, input.ActorRole),
			Data: payloads.TransferRequestCreatedEvent{
				RequestID:      request.ID,
				OrgID:          request.OrgID,
				ProductID:      request.ProductID,
				FromLocationID: request.FromLocationID,
				ToLocationID:   request.ToLocationID,
				Quantity:       request.Quantity,
				RequestedBy:    request.RequesterID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit transfer created event")
		}
		return nil
	})
	if err != nil {
		return nil, classifyTxErr(err, "create transfer request")
	}

	dto := toTransferRequestDTO(*request)
	return &dto, nil
}

// classifyTxErr passes typed errors through and maps raw transaction failures
// (a failed commit, a broken connection) to CodeDependency so callers never
// see an unclassified error.
func classifyTxErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

// Approve executes the requested movement and flips the request to approved in
// one transaction. Either both commit or neither does.
func (s *service) Approve(ctx context.Context, input DecideTransferInput) (*TransferRequestDTO, error) {
	if err := validateDecision(input); err != nil {
		return nil, err
	}

	var approved models.TransferRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request, err := s.loadPendingTx(ctx, tx, input.OrgID, input.RequestID)
		if err != nil {
			return err
		}

		source, err := s.resolveSource(ctx, tx, request)
		if err != nil {
			return err
		}

		movement, err := s.engine.ApplyTx(ctx, tx, movements.ApplyMovementInput{
			OrgID:          request.OrgID,
			ProductID:      request.ProductID,
			FromLocationID: &source,
			ToLocationID:   &request.ToLocationID,
			Quantity:       request.Quantity,
			Kind:           enums.MovementKindTransfer,
			Reason:         transferReason(request.ID),
			PerformedBy:    input.DecidedBy,
			ActorRole:      input.ActorRole,
		})
		if err != nil {
			return err
		}

		decidedAt := time.Now().UTC()
		flipped, err := s.repo.DecideTx(ctx, tx, request.OrgID, request.ID, Decision{
			Status:     enums.TransferRequestStatusApproved,
			DecidedBy:  input.DecidedBy,
			MovementID: &movement.ID,
			DecidedAt:  decidedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flip transfer request status")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer request already decided")
		}

		approved = *request
		approved.Status = enums.TransferRequestStatusApproved
		approved.ApproverID = &input.DecidedBy
		approved.MovementID = &movement.ID
		approved.DecidedAt = &decidedAt
		approved.FromLocationID = &source

		return s.emitDecided(ctx, tx, approved, input, "")
	})
	if err != nil {
		return nil, classifyTxErr(err, "approve transfer request")
	}

	dto := toTransferRequestDTO(approved)
	return &dto, nil
}

func (s *service) Reject(ctx context.Context, input DecideTransferInput) (*TransferRequestDTO, error) {
	return s.decideWithoutMovement(ctx, input, enums.TransferRequestStatusRejected, nil)
}

// Cancel withdraws a pending request. Only the original requester may cancel.
func (s *service) Cancel(ctx context.Context, input DecideTransferInput) (*TransferRequestDTO, error) {
	requesterOnly := func(request *models.TransferRequest) error {
		if request.RequesterID != input.DecidedBy {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the requester may cancel")
		}
		return nil
	}
	return s.decideWithoutMovement(ctx, input, enums.TransferRequestStatusCancelled, requesterOnly)
}

func (s *service) decideWithoutMovement(
	ctx context.Context,
	input DecideTransferInput,
	status enums.TransferRequestStatus,
	check func(*models.TransferRequest) error,
) (*TransferRequestDTO, error) {
	if err := validateDecision(input); err != nil {
		return nil, err
	}

	var decided models.TransferRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request, err := s.loadPendingTx(ctx, tx, input.OrgID, input.RequestID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(request); err != nil {
				return err
			}
		}

		decidedAt := time.Now().UTC()
		flipped, err := s.repo.DecideTx(ctx, tx, request.OrgID, request.ID, Decision{
			Status:    status,
			DecidedBy: input.DecidedBy,
			DecidedAt: decidedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flip transfer request status")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer request already decided")
		}

		decided = *request
		decided.Status = status
		decided.ApproverID = &input.DecidedBy
		decided.DecidedAt = &decidedAt

		reason := ""
		if input.Note != nil {
			reason = *input.Note
		}
		return s.emitDecided(ctx, tx, decided, input, reason)
	})
	if err != nil {
		return nil, classifyTxErr(err, "decide transfer request")
	}

	dto := toTransferRequestDTO(decided)
	return &dto, nil
}

func (s *service) loadPendingTx(ctx context.Context, tx *gorm.DB, orgID, requestID uuid.UUID) (*models.TransferRequest, error) {
	request, err := s.repo.FindByIDTx(ctx, tx, orgID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer request")
	}
	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("transfer request already %s", request.Status)).
			WithDetails(map[string]any{"status": request.Status.String()})
	}
	return request, nil
}

// resolveSource picks the debit location. A pinned source is used as is; an
// open request scans warehouse cells ordered by quantity descending (location
// id breaks ties) and takes the first one that can cover the full quantity.
func (s *service) resolveSource(ctx context.Context, tx *gorm.DB, request *models.TransferRequest) (uuid.UUID, error) {
	if request.FromLocationID != nil {
		return *request.FromLocationID, nil
	}

	candidates, err := s.stockRepo.WarehouseCandidatesTx(ctx, tx, request.OrgID, request.ProductID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan warehouse candidates")
	}

	var totalAvailable int64
	for _, cell := range candidates {
		if cell.LocationID == request.ToLocationID {
			continue
		}
		totalAvailable += cell.Quantity
	}
	for _, cell := range candidates {
		if cell.LocationID == request.ToLocationID {
			continue
		}
		if cell.Quantity >= request.Quantity {
			return cell.LocationID, nil
		}
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeInsufficient,
		fmt.Sprintf("no warehouse can cover the transfer: requested %d, available %d", request.Quantity, totalAvailable)).
		WithDetails(map[string]any{
			"requested": request.Quantity,
			"available": totalAvailable,
		})
}

func (s *service) emitDecided(ctx context.Context, tx *gorm.DB, request models.TransferRequest, input DecideTransferInput, reason string) error {
	eventType := enums.EventTransferRequestApproved
	switch request.Status {
	case enums.TransferRequestStatusRejected:
		eventType = enums.EventTransferRequestRejected
	case enums.TransferRequestStatusCancelled:
		eventType = enums.EventTransferRequestCanceled
	}
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateTransferRequest,
		AggregateID:   request.ID,
		Version:       1,
		Actor:         buildActor(input.DecidedBy, input.OrgID, input.ActorRole),
		Data: payloads.TransferRequestDecidedEvent{
			RequestID:      request.ID,
			OrgID:          request.OrgID,
			ProductID:      request.ProductID,
			FromLocationID: request.FromLocationID,
			ToLocationID:   request.ToLocationID,
			Quantity:       request.Quantity,
			Status:         request.Status,
			DecidedBy:      input.DecidedBy,
			DecidedAt:      derefTime(request.DecidedAt),
			MovementID:     request.MovementID,
			Reason:         reason,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit transfer decided event")
	}
	return nil
}

func (s *service) Get(ctx context.Context, orgID, requestID uuid.UUID) (*TransferRequestDTO, error) {
	if orgID == uuid.Nil || requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id and request id required")
	}
	request, err := s.repo.FindByID(ctx, orgID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer request")
	}
	dto := toTransferRequestDTO(*request)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListTransfersInput) (*TransferListResult, error) {
	if input.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transfer request status %q", *input.Status))
	}
	requests, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transfer requests")
	}
	dtos := make([]TransferRequestDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, toTransferRequestDTO(request))
	}
	return &TransferListResult{Requests: dtos, NextCursor: nextCursor}, nil
}

func validateDecision(input DecideTransferInput) error {
	if input.OrgID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if input.RequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.DecidedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func transferReason(requestID uuid.UUID) *string {
	reason := fmt.Sprintf("transfer request %s", requestID)
	return &reason
}

func buildActor(userID, orgID uuid.UUID, role string) *outbox.ActorRef {
	org := orgID
	return &outbox.ActorRef{
		UserID: userID,
		OrgID:  &org,
		Role:   role,
	}
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
