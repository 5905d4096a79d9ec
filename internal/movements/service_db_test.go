package movements

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/internal/stock"
	"github.com/stocklane/stocklane-backend/pkg/config"
	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newPersistedEngine(t *testing.T, db *gorm.DB, orgID, productID uuid.UUID, locationIDs ...uuid.UUID) Service {
	t.Helper()

	products := &stubProductLoader{products: map[uuid.UUID]uuid.UUID{productID: orgID}}
	locations := &stubLocationLoader{locations: map[uuid.UUID]uuid.UUID{}}
	for _, id := range locationIDs {
		locations.locations[id] = orgID
	}

	svc, err := NewService(
		NewRepository(db),
		stock.NewRepository(db),
		products,
		locations,
		gormTxRunner{db: db},
		outbox.NewService(outbox.NewRepository(db), nil),
		config.EngineConfig{RetryAttempts: 3},
		nil,
	)
	require.NoError(t, err)
	return svc
}

func cellQuantity(t *testing.T, db *gorm.DB, orgID, productID, locationID uuid.UUID) int64 {
	t.Helper()
	var quantity int64
	require.NoError(t, db.Model(&models.StockCell{}).
		Where("org_id = ? AND product_id = ? AND location_id = ?", orgID, productID, locationID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&quantity).Error)
	return quantity
}

func TestTransferCommitsCellsRecordAndEventTogether(t *testing.T) {
	db := newMovementsTestDB(t)
	orgID := uuid.New()
	productID := uuid.New()
	warehouse, store := uuid.New(), uuid.New()
	svc := newPersistedEngine(t, db, orgID, productID, warehouse, store)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 100,
		Kind: enums.MovementKindIn, ToLocationID: &warehouse, PerformedBy: uuid.New(),
	})
	require.NoError(t, err)

	dto, err := svc.Apply(ctx, ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 30,
		Kind: enums.MovementKindTransfer, FromLocationID: &warehouse, ToLocationID: &store,
		PerformedBy: uuid.New(),
	})
	require.NoError(t, err)
	require.EqualValues(t, 30, dto.Quantity)

	require.EqualValues(t, 70, cellQuantity(t, db, orgID, productID, warehouse))
	require.EqualValues(t, 30, cellQuantity(t, db, orgID, productID, store))

	var recordCount int64
	require.NoError(t, db.Model(&models.MovementRecord{}).
		Where("org_id = ? AND kind = ?", orgID, enums.MovementKindTransfer).
		Count(&recordCount).Error)
	require.EqualValues(t, 1, recordCount)

	var eventCount int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventMovementRecorded).
		Count(&eventCount).Error)
	require.EqualValues(t, 2, eventCount, "one event per committed movement")
}

func TestInsufficientTransferLeavesNothingBehind(t *testing.T) {
	db := newMovementsTestDB(t)
	orgID := uuid.New()
	productID := uuid.New()
	warehouse, store := uuid.New(), uuid.New()
	svc := newPersistedEngine(t, db, orgID, productID, warehouse, store)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 10,
		Kind: enums.MovementKindIn, ToLocationID: &warehouse, PerformedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 40,
		Kind: enums.MovementKindTransfer, FromLocationID: &warehouse, ToLocationID: &store,
		PerformedBy: uuid.New(),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficient, typed.Code())

	require.EqualValues(t, 10, cellQuantity(t, db, orgID, productID, warehouse))
	require.EqualValues(t, 0, cellQuantity(t, db, orgID, productID, store))

	var recordCount int64
	require.NoError(t, db.Model(&models.MovementRecord{}).
		Where("org_id = ? AND kind = ?", orgID, enums.MovementKindTransfer).
		Count(&recordCount).Error)
	require.Zero(t, recordCount, "failed transfer must not append to the log")
}

func TestSequentialOutsAgainstOneCell(t *testing.T) {
	db := newMovementsTestDB(t)
	orgID := uuid.New()
	productID := uuid.New()
	locationID := uuid.New()
	svc := newPersistedEngine(t, db, orgID, productID, locationID)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 100,
		Kind: enums.MovementKindIn, ToLocationID: &locationID, PerformedBy: uuid.New(),
	})
	require.NoError(t, err)

	out := ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 60,
		Kind: enums.MovementKindOut, FromLocationID: &locationID, PerformedBy: uuid.New(),
	}
	_, err = svc.Apply(ctx, out)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, out)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficient, typed.Code())

	require.EqualValues(t, 40, cellQuantity(t, db, orgID, productID, locationID))
}

func TestConcurrentOutsNeverOverdrawCell(t *testing.T) {
	db := newMovementsTestDB(t)
	orgID := uuid.New()
	productID := uuid.New()
	locationID := uuid.New()
	svc := newPersistedEngine(t, db, orgID, productID, locationID)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyMovementInput{
		OrgID: orgID, ProductID: productID, Quantity: 100,
		Kind: enums.MovementKindIn, ToLocationID: &locationID, PerformedBy: uuid.New(),
	})
	require.NoError(t, err)

	// Two writers race for the same cell; 60+60 > 100 so the guard must let
	// exactly one through regardless of interleaving.
	const writers = 2
	results := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, ApplyMovementInput{
				OrgID: orgID, ProductID: productID, Quantity: 60,
				Kind: enums.MovementKindOut, FromLocationID: &locationID, PerformedBy: uuid.New(),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var committed, insufficient int
	for err := range results {
		if err == nil {
			committed++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "unexpected untyped error: %v", err)
		require.Equal(t, pkgerrors.CodeInsufficient, typed.Code())
		insufficient++
	}
	require.Equal(t, 1, committed, "exactly one OUT may win the cell")
	require.Equal(t, 1, insufficient)

	require.EqualValues(t, 40, cellQuantity(t, db, orgID, productID, locationID))

	var outRecords int64
	require.NoError(t, db.Model(&models.MovementRecord{}).
		Where("org_id = ? AND kind = ?", orgID, enums.MovementKindOut).
		Count(&outRecords).Error)
	require.EqualValues(t, 1, outRecords, "only the winning OUT may append to the log")
}
