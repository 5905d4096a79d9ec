package transfers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/internal/movements"
	"github.com/stocklane/stocklane-backend/internal/stock"
	"github.com/stocklane/stocklane-backend/pkg/config"
	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
)

func newTransfersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:transfers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS transfer_requests (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  from_location_id TEXT,
  to_location_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  requester_id TEXT NOT NULL,
  approver_id TEXT,
  movement_id TEXT,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  decided_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  address TEXT,
  capacity INTEGER,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS stock_cells (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME,
  UNIQUE (org_id, product_id, location_id)
);`, `
CREATE TABLE IF NOT EXISTS movement_records (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  from_location_id TEXT,
  to_location_id TEXT,
  quantity INTEGER NOT NULL,
  kind TEXT NOT NULL,
  reason TEXT,
  reference TEXT,
  performed_by TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubProductLoader struct {
	products map[uuid.UUID]uuid.UUID // product id -> org id
}

func (s *stubProductLoader) FindByID(_ context.Context, orgID, id uuid.UUID) (*models.Product, error) {
	owner, ok := s.products[id]
	if !ok || owner != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Product{ID: id, OrgID: orgID}, nil
}

type stubLocationLoader struct {
	locations map[uuid.UUID]uuid.UUID // location id -> org id
}

func (s *stubLocationLoader) FindByID(_ context.Context, orgID, id uuid.UUID) (*models.Location, error) {
	owner, ok := s.locations[id]
	if !ok || owner != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Location{ID: id, OrgID: orgID}, nil
}

type transferFixture struct {
	db        *gorm.DB
	svc       Service
	orgID     uuid.UUID
	productID uuid.UUID
	requester uuid.UUID
	approver  uuid.UUID
	locations *stubLocationLoader
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()

	db := newTransfersTestDB(t)
	orgID := uuid.New()
	productID := uuid.New()

	products := &stubProductLoader{products: map[uuid.UUID]uuid.UUID{productID: orgID}}
	locations := &stubLocationLoader{locations: map[uuid.UUID]uuid.UUID{}}
	runner := gormTxRunner{db: db}
	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)
	stockRepo := stock.NewRepository(db)

	engine, err := movements.NewService(
		movements.NewRepository(db),
		stockRepo,
		products,
		locations,
		runner,
		outboxSvc,
		config.EngineConfig{RetryAttempts: 3},
		nil,
	)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), engine, stockRepo, products, locations, runner, outboxSvc)
	require.NoError(t, err)

	return &transferFixture{
		db:        db,
		svc:       svc,
		orgID:     orgID,
		productID: productID,
		requester: uuid.New(),
		approver:  uuid.New(),
		locations: locations,
	}
}

func (f *transferFixture) addLocation(t *testing.T, locationType enums.LocationType, active bool) uuid.UUID {
	t.Helper()
	location := models.Location{
		ID:       uuid.New(),
		OrgID:    f.orgID,
		Name:     "loc-" + uuid.NewString()[:8],
		Type:     locationType,
		IsActive: active,
	}
	require.NoError(t, f.db.Create(&location).Error)
	f.locations.locations[location.ID] = f.orgID
	return location.ID
}

func (f *transferFixture) seedStock(t *testing.T, locationID uuid.UUID, quantity int64) {
	t.Helper()
	cell := models.StockCell{
		ID:         uuid.New(),
		OrgID:      f.orgID,
		ProductID:  f.productID,
		LocationID: locationID,
		Quantity:   quantity,
	}
	require.NoError(t, f.db.Create(&cell).Error)
}

func (f *transferFixture) quantityAt(t *testing.T, locationID uuid.UUID) int64 {
	t.Helper()
	var quantity int64
	require.NoError(t, f.db.Model(&models.StockCell{}).
		Where("org_id = ? AND product_id = ? AND location_id = ?", f.orgID, f.productID, locationID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&quantity).Error)
	return quantity
}

func (f *transferFixture) createPending(t *testing.T, from *uuid.UUID, to uuid.UUID, quantity int64) *TransferRequestDTO {
	t.Helper()
	dto, err := f.svc.Create(context.Background(), CreateTransferInput{
		OrgID:          f.orgID,
		ProductID:      f.productID,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       quantity,
		RequestedBy:    f.requester,
	})
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusPending, dto.Status)
	return dto
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
	return typed
}

func TestCreateValidation(t *testing.T) {
	f := newTransferFixture(t)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	ctx := context.Background()

	base := CreateTransferInput{
		OrgID:        f.orgID,
		ProductID:    f.productID,
		ToLocationID: store,
		Quantity:     5,
		RequestedBy:  f.requester,
	}

	tests := []struct {
		name   string
		mutate func(input *CreateTransferInput)
		code   pkgerrors.Code
	}{
		{
			name:   "missing org",
			mutate: func(input *CreateTransferInput) { input.OrgID = uuid.Nil },
			code:   pkgerrors.CodeValidation,
		},
		{
			name:   "missing requester",
			mutate: func(input *CreateTransferInput) { input.RequestedBy = uuid.Nil },
			code:   pkgerrors.CodeUnauthorized,
		},
		{
			name:   "non positive quantity",
			mutate: func(input *CreateTransferInput) { input.Quantity = 0 },
			code:   pkgerrors.CodeValidation,
		},
		{
			name: "source equals destination",
			mutate: func(input *CreateTransferInput) {
				source := input.ToLocationID
				input.FromLocationID = &source
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name:   "unknown product",
			mutate: func(input *CreateTransferInput) { input.ProductID = uuid.New() },
			code:   pkgerrors.CodeNotFound,
		},
		{
			name:   "unknown destination",
			mutate: func(input *CreateTransferInput) { input.ToLocationID = uuid.New() },
			code:   pkgerrors.CodeNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := f.svc.Create(ctx, input)
			requireCode(t, err, tc.code)
		})
	}
}

func TestCreatePersistsPendingRequestWithEvent(t *testing.T) {
	f := newTransferFixture(t)
	store := f.addLocation(t, enums.LocationTypeStore, true)

	dto := f.createPending(t, nil, store, 7)
	require.Nil(t, dto.FromLocationID, "open source stays unresolved until approval")

	stored, err := f.svc.Get(context.Background(), f.orgID, dto.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusPending, stored.Status)

	var eventCount int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventTransferRequestCreated, dto.ID).
		Count(&eventCount).Error)
	require.EqualValues(t, 1, eventCount)
}

func TestApproveMovesStockAndFlipsStatusTogether(t *testing.T) {
	f := newTransferFixture(t)
	warehouse := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, warehouse, 100)

	request := f.createPending(t, &warehouse, store, 30)

	approved, err := f.svc.Approve(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
	})
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusApproved, approved.Status)
	require.NotNil(t, approved.MovementID)
	require.NotNil(t, approved.ApproverID)
	require.Equal(t, f.approver, *approved.ApproverID)
	require.NotNil(t, approved.DecidedAt)

	require.EqualValues(t, 70, f.quantityAt(t, warehouse))
	require.EqualValues(t, 30, f.quantityAt(t, store))

	var movement models.MovementRecord
	require.NoError(t, f.db.Where("id = ?", *approved.MovementID).First(&movement).Error)
	require.Equal(t, enums.MovementKindTransfer, movement.Kind)
	require.EqualValues(t, 30, movement.Quantity)

	var eventCount int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventTransferRequestApproved, request.ID).
		Count(&eventCount).Error)
	require.EqualValues(t, 1, eventCount)
}

func TestSecondApproveFailsWithoutMovingStockTwice(t *testing.T) {
	f := newTransferFixture(t)
	warehouse := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, warehouse, 100)

	request := f.createPending(t, &warehouse, store, 30)
	decide := DecideTransferInput{OrgID: f.orgID, RequestID: request.ID, DecidedBy: f.approver}
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, decide)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, decide)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	require.EqualValues(t, 70, f.quantityAt(t, warehouse))
	require.EqualValues(t, 30, f.quantityAt(t, store))

	var movementCount int64
	require.NoError(t, f.db.Model(&models.MovementRecord{}).
		Where("org_id = ? AND kind = ?", f.orgID, enums.MovementKindTransfer).
		Count(&movementCount).Error)
	require.EqualValues(t, 1, movementCount, "stock must move exactly once")
}

func TestApproveOpenSourcePicksFirstCoveringWarehouse(t *testing.T) {
	f := newTransferFixture(t)
	small := f.addLocation(t, enums.LocationTypeWarehouse, true)
	large := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, small, 20)
	f.seedStock(t, large, 50)

	request := f.createPending(t, nil, store, 40)

	approved, err := f.svc.Approve(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
	})
	require.NoError(t, err)
	require.NotNil(t, approved.FromLocationID)
	require.Equal(t, large, *approved.FromLocationID, "largest covering warehouse wins")

	require.EqualValues(t, 10, f.quantityAt(t, large))
	require.EqualValues(t, 20, f.quantityAt(t, small), "other warehouse untouched")
	require.EqualValues(t, 40, f.quantityAt(t, store))
}

func TestApproveOpenSourceInsufficientReportsTotalAvailable(t *testing.T) {
	f := newTransferFixture(t)
	first := f.addLocation(t, enums.LocationTypeWarehouse, true)
	second := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, first, 20)
	f.seedStock(t, second, 15)

	request := f.createPending(t, nil, store, 40)

	_, err := f.svc.Approve(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
	})
	typed := requireCode(t, err, pkgerrors.CodeInsufficient)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok, "expected requested/available details, got %T", typed.Details())
	require.EqualValues(t, int64(40), details["requested"])
	require.EqualValues(t, int64(35), details["available"], "total across candidates, not the best cell")

	stored, err := f.svc.Get(context.Background(), f.orgID, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusPending, stored.Status, "failed approval leaves the request pending")
	require.EqualValues(t, 20, f.quantityAt(t, first))
	require.EqualValues(t, 15, f.quantityAt(t, second))
}

func TestApprovePinnedSourceInsufficientRollsBackEverything(t *testing.T) {
	f := newTransferFixture(t)
	warehouse := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, warehouse, 10)

	request := f.createPending(t, &warehouse, store, 40)

	_, err := f.svc.Approve(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
	})
	requireCode(t, err, pkgerrors.CodeInsufficient)

	stored, err := f.svc.Get(context.Background(), f.orgID, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusPending, stored.Status)
	require.EqualValues(t, 10, f.quantityAt(t, warehouse))
	require.EqualValues(t, 0, f.quantityAt(t, store))

	var movementCount int64
	require.NoError(t, f.db.Model(&models.MovementRecord{}).
		Where("org_id = ?", f.orgID).
		Count(&movementCount).Error)
	require.Zero(t, movementCount)
}

func TestRejectDoesNotTouchStock(t *testing.T) {
	f := newTransferFixture(t)
	warehouse := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, warehouse, 100)

	request := f.createPending(t, &warehouse, store, 30)

	note := "budget freeze"
	rejected, err := f.svc.Reject(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
		Note:      &note,
	})
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusRejected, rejected.Status)
	require.Nil(t, rejected.MovementID)

	require.EqualValues(t, 100, f.quantityAt(t, warehouse))
	require.EqualValues(t, 0, f.quantityAt(t, store))

	_, err = f.svc.Approve(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
	})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCancelOnlyByRequester(t *testing.T) {
	f := newTransferFixture(t)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	request := f.createPending(t, nil, store, 5)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.approver,
	})
	requireCode(t, err, pkgerrors.CodeForbidden)

	cancelled, err := f.svc.Cancel(ctx, DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: request.ID,
		DecidedBy: f.requester,
	})
	require.NoError(t, err)
	require.Equal(t, enums.TransferRequestStatusCancelled, cancelled.Status)

	var eventCount int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventTransferRequestCanceled, request.ID).
		Count(&eventCount).Error)
	require.EqualValues(t, 1, eventCount)
}

func TestGetScopedToOrg(t *testing.T) {
	f := newTransferFixture(t)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	request := f.createPending(t, nil, store, 5)

	_, err := f.svc.Get(context.Background(), uuid.New(), request.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newTransferFixture(t)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	ctx := context.Background()

	first := f.createPending(t, nil, store, 5)
	f.createPending(t, nil, store, 6)
	_, err := f.svc.Cancel(ctx, DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: first.ID,
		DecidedBy: f.requester,
	})
	require.NoError(t, err)

	pending := enums.TransferRequestStatusPending
	result, err := f.svc.List(ctx, ListTransfersInput{OrgID: f.orgID, Status: &pending})
	require.NoError(t, err)
	require.Len(t, result.Requests, 1)
	require.Equal(t, enums.TransferRequestStatusPending, result.Requests[0].Status)

	all, err := f.svc.List(ctx, ListTransfersInput{OrgID: f.orgID})
	require.NoError(t, err)
	require.Len(t, all.Requests, 2)
}

// commitFailRunner runs the callback successfully and then fails the
// transaction itself, the shape a commit-time connection failure takes.
type commitFailRunner struct {
	db *gorm.DB
}

func (r commitFailRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("driver: bad connection")
	})
}

func TestApproveClassifiesRawTransactionFailure(t *testing.T) {
	f := newTransferFixture(t)
	warehouse := f.addLocation(t, enums.LocationTypeWarehouse, true)
	store := f.addLocation(t, enums.LocationTypeStore, true)
	f.seedStock(t, warehouse, 50)
	pending := f.createPending(t, &warehouse, store, 10)

	products := &stubProductLoader{products: map[uuid.UUID]uuid.UUID{f.productID: f.orgID}}
	outboxSvc := outbox.NewService(outbox.NewRepository(f.db), nil)
	stockRepo := stock.NewRepository(f.db)
	engine, err := movements.NewService(
		movements.NewRepository(f.db),
		stockRepo,
		products,
		f.locations,
		gormTxRunner{db: f.db},
		outboxSvc,
		config.EngineConfig{RetryAttempts: 3},
		nil,
	)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(f.db), engine, stockRepo, products, f.locations,
		commitFailRunner{db: f.db}, outboxSvc)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), DecideTransferInput{
		OrgID:     f.orgID,
		RequestID: pending.ID,
		DecidedBy: f.approver,
		ActorRole: "manager",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "raw transaction errors must surface typed, got %v", err)
	require.Equal(t, pkgerrors.CodeDependency, typed.Code())

	require.EqualValues(t, 50, f.quantityAt(t, warehouse), "failed approve must roll the movement back")
}
