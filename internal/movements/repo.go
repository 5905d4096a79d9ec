package movements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/pagination"
)

// Repository defines persistence for the append-only movement log. Records are
// inserted only by the engine and never updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertTx(ctx context.Context, tx *gorm.DB, record *models.MovementRecord) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.MovementRecord, error)
	List(ctx context.Context, input ListMovementsInput) ([]models.MovementRecord, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a movement log repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) InsertTx(ctx context.Context, tx *gorm.DB, record *models.MovementRecord) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.MovementRecord, error) {
	var record models.MovementRecord
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, input ListMovementsInput) ([]models.MovementRecord, string, error) {
	pageSize := pagination.NormalizeLimit(input.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Limit)

	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Where("org_id = ?", input.OrgID)
	if input.ProductID != nil {
		qb = qb.Where("product_id = ?", *input.ProductID)
	}
	if input.LocationID != nil {
		qb = qb.Where("(from_location_id = ? OR to_location_id = ?)", *input.LocationID, *input.LocationID)
	}
	if input.Kind != nil {
		qb = qb.Where("kind = ?", *input.Kind)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []models.MovementRecord
	err = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&records).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(records) > pageSize {
		records = records[:pageSize]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return records, nextCursor, nil
}
