package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/stocklane/stocklane-backend/pkg/db"
	"github.com/stocklane/stocklane-backend/pkg/db/models"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
)

// Service manages the product catalog, including the min/max stock thresholds
// the alert evaluator reads.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, input UpdateProductInput) (*ProductDTO, error)
	UpdateThresholds(ctx context.Context, input UpdateThresholdsInput) (*ProductDTO, error)
	Get(ctx context.Context, orgID, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	Deactivate(ctx context.Context, orgID, productID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the product service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if err := validateThresholds(input.MinStock, input.MaxStock); err != nil {
		return nil, err
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "unit"
	}
	product := &models.Product{
		ID:        uuid.New(),
		OrgID:     input.OrgID,
		SKU:       sku,
		Name:      name,
		Unit:      unit,
		MinStock:  input.MinStock,
		MaxStock:  input.MaxStock,
		UnitPrice: input.UnitPrice,
		CostPrice: input.CostPrice,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_products_org_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %q already exists", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, input.OrgID, input.ProductID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		product.Name = name
	}
	if input.Unit != nil {
		unit := strings.TrimSpace(*input.Unit)
		if unit == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit must not be empty")
		}
		product.Unit = unit
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		product.UnitPrice = *input.UnitPrice
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price must not be negative")
		}
		product.CostPrice = *input.CostPrice
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

// UpdateThresholds changes the alerting bounds. The next evaluation picks the
// new thresholds up; no alert is touched here.
func (s *service) UpdateThresholds(ctx context.Context, input UpdateThresholdsInput) (*ProductDTO, error) {
	if err := validateThresholds(input.MinStock, input.MaxStock); err != nil {
		return nil, err
	}
	product, err := s.load(ctx, input.OrgID, input.ProductID)
	if err != nil {
		return nil, err
	}

	product.MinStock = input.MinStock
	product.MaxStock = input.MaxStock
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product thresholds")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, orgID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id required")
	}
	products, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(products))
	for _, product := range products {
		dtos = append(dtos, toProductDTO(product))
	}
	return &ProductListResult{Products: dtos, NextCursor: nextCursor}, nil
}

func (s *service) Deactivate(ctx context.Context, orgID, productID uuid.UUID) error {
	if orgID == uuid.Nil || productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "org id and product id required")
	}
	if err := s.repo.SetActive(ctx, orgID, productID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *service) load(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error) {
	if orgID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "org id and product id required")
	}
	product, err := s.repo.FindByID(ctx, orgID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateThresholds(minStock int64, maxStock *int64) error {
	if minStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min stock must not be negative")
	}
	if maxStock != nil && *maxStock < minStock {
		return pkgerrors.New(pkgerrors.CodeValidation, "max stock must be at least min stock")
	}
	return nil
}
