package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
)

// Service exposes read access to the stock table. All writes go through the
// movement engine.
type Service interface {
	GetQuantity(ctx context.Context, orgID, productID, locationID uuid.UUID) (*CellDTO, error)
	ListCells(ctx context.Context, orgID uuid.UUID, filters CellFilters) ([]CellDTO, error)
}

type service struct {
	repo Repository
}

// NewService wires a stock read service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetQuantity(ctx context.Context, orgID, productID, locationID uuid.UUID) (*CellDTO, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if productID == uuid.Nil || locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and location id required")
	}

	cell, err := s.repo.FindCell(ctx, CellKey{OrgID: orgID, ProductID: productID, LocationID: locationID})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No movement has ever touched the pair; the cell reads as zero.
			return &CellDTO{
				OrgID:      orgID,
				ProductID:  productID,
				LocationID: locationID,
				Quantity:   0,
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock cell")
	}
	dto := toCellDTO(*cell)
	return &dto, nil
}

func (s *service) ListCells(ctx context.Context, orgID uuid.UUID, filters CellFilters) ([]CellDTO, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	cells, err := s.repo.ListCells(ctx, orgID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock cells")
	}
	dtos := make([]CellDTO, 0, len(cells))
	for _, cell := range cells {
		dtos = append(dtos, toCellDTO(cell))
	}
	return dtos, nil
}
