package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklane/stocklane-backend/pkg/db/models"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
)

type stubLocationRepo struct {
	rows map[uuid.UUID]*models.Location
}

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{rows: make(map[uuid.UUID]*models.Location)}
}

func (s *stubLocationRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLocationRepo) Create(ctx context.Context, location *models.Location) (*models.Location, error) {
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	s.rows[location.ID] = location
	return location, nil
}

func (s *stubLocationRepo) Update(ctx context.Context, location *models.Location) (*models.Location, error) {
	s.rows[location.ID] = location
	return location, nil
}

func (s *stubLocationRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Location, error) {
	row, ok := s.rows[id]
	if !ok || row.OrgID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *stubLocationRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, locType *enums.LocationType) ([]models.Location, error) {
	var out []models.Location
	for _, row := range s.rows {
		if row.OrgID != orgID {
			continue
		}
		if locType != nil && row.Type != *locType {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (s *stubLocationRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	row, ok := s.rows[id]
	if !ok || row.OrgID != orgID {
		return gorm.ErrRecordNotFound
	}
	row.IsActive = active
	return nil
}

func TestCreateLocationValidation(t *testing.T) {
	svc, err := NewService(newStubLocationRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	orgID := uuid.New()

	cases := []struct {
		name  string
		input CreateLocationInput
	}{
		{name: "invalid type", input: CreateLocationInput{Type: "depot", Name: "North"}},
		{name: "blank name", input: CreateLocationInput{Type: enums.LocationTypeWarehouse, Name: "  "}},
		{name: "capacity on store", input: CreateLocationInput{
			Type: enums.LocationTypeStore, Name: "Downtown",
			Capacity: func() *int64 { v := int64(10); return &v }(),
		}},
		{name: "non-positive capacity", input: CreateLocationInput{
			Type: enums.LocationTypeWarehouse, Name: "North",
			Capacity: func() *int64 { v := int64(0); return &v }(),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), orgID, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateWarehouseWithCapacity(t *testing.T) {
	repo := newStubLocationRepo()
	svc, _ := NewService(repo)
	orgID := uuid.New()
	capacity := int64(1000)

	dto, err := svc.Create(context.Background(), orgID, CreateLocationInput{
		Type:     enums.LocationTypeWarehouse,
		Name:     " North DC ",
		Capacity: &capacity,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Name != "North DC" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.Capacity == nil || *dto.Capacity != 1000 {
		t.Fatalf("expected capacity 1000, got %+v", dto.Capacity)
	}
	if !dto.IsActive {
		t.Fatalf("new locations must start active")
	}
}

func TestGetLocationScopedToOrg(t *testing.T) {
	repo := newStubLocationRepo()
	svc, _ := NewService(repo)
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateLocationInput{
		Type: enums.LocationTypeStore, Name: "Downtown",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), uuid.New(), dto.ID); err == nil {
		t.Fatalf("expected not found for foreign org")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}

	got, err := svc.Get(context.Background(), orgID, dto.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != dto.ID {
		t.Fatalf("unexpected location %+v", got)
	}
}

func TestDeactivateLocation(t *testing.T) {
	repo := newStubLocationRepo()
	svc, _ := NewService(repo)
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateLocationInput{
		Type: enums.LocationTypeWarehouse, Name: "North",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Deactivate(context.Background(), orgID, dto.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := svc.Get(context.Background(), orgID, dto.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Fatalf("expected deactivated location")
	}

	if err := svc.Deactivate(context.Background(), orgID, uuid.New()); err == nil {
		t.Fatalf("expected not found")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
