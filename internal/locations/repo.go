package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// Repository defines persistence for the location registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, location *models.Location) (*models.Location, error)
	Update(ctx context.Context, location *models.Location) (*models.Location, error)
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Location, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, locType *enums.LocationType) ([]models.Location, error)
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a location repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repository) Update(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Save(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) ListByOrg(ctx context.Context, orgID uuid.UUID, locType *enums.LocationType) ([]models.Location, error) {
	qb := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if locType != nil {
		qb = qb.Where("type = ?", *locType)
	}
	var rows []models.Location
	err := qb.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
