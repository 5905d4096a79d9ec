package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
)

type stubStockRepo struct {
	cells map[CellKey]*models.StockCell
}

func (s *stubStockRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubStockRepo) FindCell(ctx context.Context, key CellKey) (*models.StockCell, error) {
	if cell, ok := s.cells[key]; ok {
		return cell, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStockRepo) ListCells(ctx context.Context, orgID uuid.UUID, filters CellFilters) ([]models.StockCell, error) {
	var out []models.StockCell
	for _, cell := range s.cells {
		if cell.OrgID != orgID {
			continue
		}
		if filters.ProductID != nil && cell.ProductID != *filters.ProductID {
			continue
		}
		if filters.LocationID != nil && cell.LocationID != *filters.LocationID {
			continue
		}
		out = append(out, *cell)
	}
	return out, nil
}

func (s *stubStockRepo) DebitTx(ctx context.Context, tx *gorm.DB, key CellKey, quantity int64) (bool, error) {
	panic("not implemented")
}

func (s *stubStockRepo) CreditTx(ctx context.Context, tx *gorm.DB, key CellKey, quantity int64) error {
	panic("not implemented")
}

func (s *stubStockRepo) QuantityTx(ctx context.Context, tx *gorm.DB, key CellKey) (int64, error) {
	panic("not implemented")
}

func (s *stubStockRepo) WarehouseCandidatesTx(ctx context.Context, tx *gorm.DB, orgID, productID uuid.UUID) ([]models.StockCell, error) {
	panic("not implemented")
}

func TestGetQuantityMissingCellReadsZero(t *testing.T) {
	svc, err := NewService(&stubStockRepo{cells: map[CellKey]*models.StockCell{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	orgID, productID, locationID := uuid.New(), uuid.New(), uuid.New()
	cell, err := svc.GetQuantity(context.Background(), orgID, productID, locationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", cell.Quantity)
	}
	if cell.ProductID != productID || cell.LocationID != locationID {
		t.Fatalf("unexpected cell identity %+v", cell)
	}
}

func TestGetQuantityReturnsCell(t *testing.T) {
	key := CellKey{OrgID: uuid.New(), ProductID: uuid.New(), LocationID: uuid.New()}
	repo := &stubStockRepo{cells: map[CellKey]*models.StockCell{
		key: {ID: uuid.New(), OrgID: key.OrgID, ProductID: key.ProductID, LocationID: key.LocationID, Quantity: 70},
	}}
	svc, _ := NewService(repo)

	cell, err := svc.GetQuantity(context.Background(), key.OrgID, key.ProductID, key.LocationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.Quantity != 70 {
		t.Fatalf("expected quantity 70, got %d", cell.Quantity)
	}
}

func TestGetQuantityValidatesIdentity(t *testing.T) {
	svc, _ := NewService(&stubStockRepo{})

	_, err := svc.GetQuantity(context.Background(), uuid.Nil, uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.GetQuantity(context.Background(), uuid.New(), uuid.Nil, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListCellsFiltersByProduct(t *testing.T) {
	orgID := uuid.New()
	productID := uuid.New()
	keyA := CellKey{OrgID: orgID, ProductID: productID, LocationID: uuid.New()}
	keyB := CellKey{OrgID: orgID, ProductID: uuid.New(), LocationID: uuid.New()}
	repo := &stubStockRepo{cells: map[CellKey]*models.StockCell{
		keyA: {OrgID: orgID, ProductID: keyA.ProductID, LocationID: keyA.LocationID, Quantity: 3},
		keyB: {OrgID: orgID, ProductID: keyB.ProductID, LocationID: keyB.LocationID, Quantity: 9},
	}}
	svc, _ := NewService(repo)

	cells, err := svc.ListCells(context.Background(), orgID, CellFilters{ProductID: &productID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 1 || cells[0].ProductID != productID {
		t.Fatalf("unexpected filter result %+v", cells)
	}
}
