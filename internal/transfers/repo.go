package transfers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/pagination"
)

// Decision carries the terminal state written by the guarded status flip.
type Decision struct {
	Status     enums.TransferRequestStatus
	DecidedBy  uuid.UUID
	MovementID *uuid.UUID
	DecidedAt  time.Time
}

// Repository defines persistence for transfer requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTx(ctx context.Context, tx *gorm.DB, request *models.TransferRequest) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.TransferRequest, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*models.TransferRequest, error)
	DecideTx(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID, decision Decision) (bool, error)
	List(ctx context.Context, input ListTransfersInput) ([]models.TransferRequest, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transfer request repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTx(ctx context.Context, tx *gorm.DB, request *models.TransferRequest) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.TransferRequest, error) {
	return findByID(r.db.WithContext(ctx), orgID, id)
}

func (r *repository) FindByIDTx(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*models.TransferRequest, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return findByID(tx.WithContext(ctx), orgID, id)
}

func findByID(qb *gorm.DB, orgID, id uuid.UUID) (*models.TransferRequest, error) {
	var request models.TransferRequest
	err := qb.Where("org_id = ? AND id = ?", orgID, id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// DecideTx flips a pending request to its terminal state. The status guard in
// the WHERE clause makes concurrent decisions race on the row update: exactly
// one caller sees RowsAffected == 1, every other caller gets false.
func (r *repository) DecideTx(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID, decision Decision) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.WithContext(ctx).
		Model(&models.TransferRequest{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, enums.TransferRequestStatusPending).
		Updates(map[string]interface{}{
			"status":      decision.Status,
			"approver_id": decision.DecidedBy,
			"movement_id": decision.MovementID,
			"decided_at":  decision.DecidedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, input ListTransfersInput) ([]models.TransferRequest, string, error) {
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
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var requests []models.TransferRequest
	err = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&requests).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(requests) > pageSize {
		requests = requests[:pageSize]
		last := requests[len(requests)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return requests, nextCursor, nil
}
