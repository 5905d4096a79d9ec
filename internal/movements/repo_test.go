package movements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

func newMovementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:movements_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
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

func seedMovement(t *testing.T, db *gorm.DB, orgID, productID uuid.UUID, kind enums.MovementKind, createdAt time.Time) uuid.UUID {
	t.Helper()
	from := uuid.New()
	record := models.MovementRecord{
		ID:          uuid.New(),
		OrgID:       orgID,
		ProductID:   productID,
		FromLocationID: &from,
		Quantity:    1,
		Kind:        kind,
		PerformedBy: uuid.New(),
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&record).Error)
	return record.ID
}

func TestMovementListPagination(t *testing.T) {
	db := newMovementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	productID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		seedMovement(t, db, orgID, productID, enums.MovementKindIn, base.Add(time.Duration(i)*time.Second))
	}
	// Foreign tenant rows never leak into the page.
	seedMovement(t, db, uuid.New(), productID, enums.MovementKindIn, base)

	page1, cursor, err := repo.List(ctx, ListMovementsInput{OrgID: orgID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.NotEmpty(t, cursor)
	require.True(t, page1[0].CreatedAt.After(page1[2].CreatedAt) || page1[0].CreatedAt.Equal(page1[2].CreatedAt))

	page2, cursor2, err := repo.List(ctx, ListMovementsInput{OrgID: orgID, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.Empty(t, cursor2)

	seen := make(map[uuid.UUID]bool)
	for _, record := range append(page1, page2...) {
		require.Equal(t, orgID, record.OrgID)
		require.False(t, seen[record.ID], "pages must not overlap")
		seen[record.ID] = true
	}
}

func TestMovementListFilters(t *testing.T) {
	db := newMovementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	productA, productB := uuid.New(), uuid.New()
	now := time.Now().UTC()
	seedMovement(t, db, orgID, productA, enums.MovementKindIn, now)
	seedMovement(t, db, orgID, productA, enums.MovementKindOut, now)
	seedMovement(t, db, orgID, productB, enums.MovementKindIn, now)

	kind := enums.MovementKindOut
	records, _, err := repo.List(ctx, ListMovementsInput{OrgID: orgID, ProductID: &productA, Kind: &kind})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, enums.MovementKindOut, records[0].Kind)
	require.Equal(t, productA, records[0].ProductID)
}

func TestMovementFindByIDScopedToOrg(t *testing.T) {
	db := newMovementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	id := seedMovement(t, db, orgID, uuid.New(), enums.MovementKindAdjustment, time.Now().UTC())

	record, err := repo.FindByID(ctx, orgID, id)
	require.NoError(t, err)
	require.Equal(t, id, record.ID)

	_, err = repo.FindByID(ctx, uuid.New(), id)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
