package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// CellKey identifies one (product, location, org) cell.
type CellKey struct {
	OrgID      uuid.UUID
	ProductID  uuid.UUID
	LocationID uuid.UUID
}

// Repository defines persistence operations on stock cells. All mutations run
// inside a caller-owned transaction; the movement engine is the only caller.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCell(ctx context.Context, key CellKey) (*models.StockCell, error)
	ListCells(ctx context.Context, orgID uuid.UUID, filters CellFilters) ([]models.StockCell, error)
	DebitTx(ctx context.Context, tx *gorm.DB, key CellKey, quantity int64) (bool, error)
	CreditTx(ctx context.Context, tx *gorm.DB, key CellKey, quantity int64) error
	QuantityTx(ctx context.Context, tx *gorm.DB, key CellKey) (int64, error)
	WarehouseCandidatesTx(ctx context.Context, tx *gorm.DB, orgID, productID uuid.UUID) ([]models.StockCell, error)
}

// CellFilters narrows ListCells results.
type CellFilters struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCell(ctx context.Context, key CellKey) (*models.StockCell, error) {
	var cell models.StockCell
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND product_id = ? AND location_id = ?", key.OrgID, key.ProductID, key.LocationID).
		First(&cell).Error
	if err != nil {
		return nil, err
	}
	return &cell, nil
}

func (r *repository) ListCells(ctx context.Context, orgID uuid.UUID, filters CellFilters) ([]models.StockCell, error) {
	qb := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if filters.ProductID != nil {
		qb = qb.Where("product_id = ?", *filters.ProductID)
	}
	if filters.LocationID != nil {
		qb = qb.Where("location_id = ?", *filters.LocationID)
	}
	var cells []models.StockCell
	err := qb.Order("product_id ASC").Order("location_id ASC").Find(&cells).Error
	return cells, err
}

// DebitTx subtracts quantity only when the cell currently holds at least that
// much. The guard and the write are one statement so two concurrent debits can
// never both read the same starting quantity. Returns false when the guard
// rejected the decrement (missing cell or insufficient quantity).
func (r *repository) DebitTx(ctx context.Context, tx *gorm.DB, key CellKey, quantity int64) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.WithContext(ctx).Exec(`
		UPDATE stock_cells
		SET quantity = quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE org_id = ? AND product_id = ? AND location_id = ? AND quantity >= ?
	`, quantity, key.OrgID, key.ProductID, key.LocationID, quantity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreditTx adds quantity to the cell, creating the row lazily on first
// movement into the (product, location) pair. The upsert is one statement so
// two first movements into the same missing cell cannot race past each other:
// the loser lands on the unique index and takes the update branch instead of
// failing with a duplicate-key error.
func (r *repository) CreditTx(ctx context.Context, tx *gorm.DB, key CellKey, quantity int64) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.WithContext(ctx).Exec(`
		INSERT INTO stock_cells (id, org_id, product_id, location_id, quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (org_id, product_id, location_id)
		DO UPDATE SET quantity = stock_cells.quantity + excluded.quantity,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.New(), key.OrgID, key.ProductID, key.LocationID, quantity).Error
}

// QuantityTx reads the current quantity inside the transaction. A missing cell
// reads as zero.
func (r *repository) QuantityTx(ctx context.Context, tx *gorm.DB, key CellKey) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	var quantity int64
	err := tx.WithContext(ctx).
		Model(&models.StockCell{}).
		Where("org_id = ? AND product_id = ? AND location_id = ?", key.OrgID, key.ProductID, key.LocationID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&quantity).Error
	return quantity, err
}

// WarehouseCandidatesTx lists warehouse cells holding the product, ordered by
// quantity descending with location id as the deterministic tie-break.
func (r *repository) WarehouseCandidatesTx(ctx context.Context, tx *gorm.DB, orgID, productID uuid.UUID) ([]models.StockCell, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var cells []models.StockCell
	err := tx.WithContext(ctx).
		Table("stock_cells").
		Select("stock_cells.*").
		Joins("JOIN locations ON locations.id = stock_cells.location_id").
		Where("stock_cells.org_id = ? AND stock_cells.product_id = ?", orgID, productID).
		Where("locations.type = ? AND locations.is_active = ?", enums.LocationTypeWarehouse, true).
		Order("stock_cells.quantity DESC").
		Order("stock_cells.location_id ASC").
		Find(&cells).Error
	return cells, err
}
