package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/pagination"
)

// CellSnapshot is one stock cell joined with its product thresholds, the unit
// the evaluator classifies.
type CellSnapshot struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Quantity   int64
	MinStock   int64
	MaxStock   *int64
}

// Repository defines persistence for stock alerts and the evaluator's inputs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	OrgIDs(ctx context.Context) ([]uuid.UUID, error)
	CellSnapshotsTx(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]CellSnapshot, error)
	ListActiveTx(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]models.Alert, error)
	CreateTx(ctx context.Context, tx *gorm.DB, alert *models.Alert) error
	ResolveTx(ctx context.Context, tx *gorm.DB, orgID, alertID uuid.UUID, resolvedAt time.Time) (bool, error)
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Alert, error)
	List(ctx context.Context, input ListAlertsInput) ([]models.Alert, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an alert repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// OrgIDs lists the tenants that hold any stock, the set worth evaluating.
func (r *repository) OrgIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("stock_cells").
		Distinct("org_id").
		Order("org_id ASC").
		Pluck("org_id", &ids).Error
	return ids, err
}

func (r *repository) CellSnapshotsTx(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]CellSnapshot, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var snapshots []CellSnapshot
	err := tx.WithContext(ctx).
		Table("stock_cells").
		Select("stock_cells.product_id, stock_cells.location_id, stock_cells.quantity, products.min_stock, products.max_stock").
		Joins("JOIN products ON products.id = stock_cells.product_id").
		Where("stock_cells.org_id = ?", orgID).
		Order("stock_cells.product_id ASC").
		Order("stock_cells.location_id ASC").
		Scan(&snapshots).Error
	return snapshots, err
}

func (r *repository) ListActiveTx(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]models.Alert, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var alerts []models.Alert
	err := tx.WithContext(ctx).
		Where("org_id = ? AND status = ?", orgID, enums.AlertStatusActive).
		Find(&alerts).Error
	return alerts, err
}

func (r *repository) CreateTx(ctx context.Context, tx *gorm.DB, alert *models.Alert) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.WithContext(ctx).Create(alert).Error
}

// ResolveTx flips an active alert to resolved. The status guard keeps a
// concurrent evaluation from resolving the same alert twice.
func (r *repository) ResolveTx(ctx context.Context, tx *gorm.DB, orgID, alertID uuid.UUID, resolvedAt time.Time) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.WithContext(ctx).
		Model(&models.Alert{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, alertID, enums.AlertStatusActive).
		Updates(map[string]interface{}{
			"status":      enums.AlertStatusResolved,
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) List(ctx context.Context, input ListAlertsInput) ([]models.Alert, string, error) {
	pageSize := pagination.NormalizeLimit(input.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Limit)

	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Where("org_id = ?", input.OrgID)
	if input.Status != nil {
		qb = qb.Where("status = ?", *input.Status)
	}
	if input.Type != nil {
		qb = qb.Where("type = ?", *input.Type)
	}
	if cursor != nil {
		qb = qb.Where("(raised_at < ?) OR (raised_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var alerts []models.Alert
	err = qb.Order("raised_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&alerts).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(alerts) > pageSize {
		alerts = alerts[:pageSize]
		last := alerts[len(alerts)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.RaisedAt, ID: last.ID})
	}
	return alerts, nextCursor, nil
}
