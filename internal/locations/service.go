package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
)

// Service exposes location registry operations scoped to one organization.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateLocationInput) (*LocationDTO, error)
	Update(ctx context.Context, orgID, locationID uuid.UUID, input UpdateLocationInput) (*LocationDTO, error)
	Get(ctx context.Context, orgID, locationID uuid.UUID) (*LocationDTO, error)
	List(ctx context.Context, orgID uuid.UUID, locType *enums.LocationType) ([]LocationDTO, error)
	Deactivate(ctx context.Context, orgID, locationID uuid.UUID) error
}

// CreateLocationInput holds the validated payload to register a location.
type CreateLocationInput struct {
	Type     enums.LocationType
	Name     string
	Address  *string
	Capacity *int64
}

// UpdateLocationInput holds optional mutation values for a location.
type UpdateLocationInput struct {
	Name     *string
	Address  *string
	Capacity *int64
	IsActive *bool
}

type service struct {
	repo Repository
}

// NewService constructs a location service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("location repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateLocationInput) (*LocationDTO, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid location type %q", input.Type))
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}
	if input.Capacity != nil {
		if input.Type != enums.LocationTypeWarehouse {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity applies to warehouses only")
		}
		if *input.Capacity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
		}
	}

	location := &models.Location{
		OrgID:    orgID,
		Type:     input.Type,
		Name:     name,
		Address:  input.Address,
		Capacity: input.Capacity,
		IsActive: true,
	}
	created, err := s.repo.Create(ctx, location)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	dto := toLocationDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, orgID, locationID uuid.UUID, input UpdateLocationInput) (*LocationDTO, error) {
	location, err := s.load(ctx, orgID, locationID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
		}
		location.Name = name
	}
	if input.Address != nil {
		location.Address = input.Address
	}
	if input.Capacity != nil {
		if location.Type != enums.LocationTypeWarehouse {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity applies to warehouses only")
		}
		if *input.Capacity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
		}
		location.Capacity = input.Capacity
	}
	if input.IsActive != nil {
		location.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, location)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	dto := toLocationDTO(*updated)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, orgID, locationID uuid.UUID) (*LocationDTO, error) {
	location, err := s.load(ctx, orgID, locationID)
	if err != nil {
		return nil, err
	}
	dto := toLocationDTO(*location)
	return &dto, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, locType *enums.LocationType) ([]LocationDTO, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	if locType != nil && !locType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid location type %q", *locType))
	}
	rows, err := s.repo.ListByOrg(ctx, orgID, locType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	dtos := make([]LocationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toLocationDTO(row))
	}
	return dtos, nil
}

func (s *service) Deactivate(ctx context.Context, orgID, locationID uuid.UUID) error {
	if orgID == uuid.Nil || locationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "org id and location id required")
	}
	if err := s.repo.SetActive(ctx, orgID, locationID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate location")
	}
	return nil
}

func (s *service) load(ctx context.Context, orgID, locationID uuid.UUID) (*models.Location, error) {
	if orgID == uuid.Nil || locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id and location id required")
	}
	location, err := s.repo.FindByID(ctx, orgID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}
