package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stocklane/stocklane-backend/api/responses"
	"github.com/stocklane/stocklane-backend/api/validators"
	"github.com/stocklane/stocklane-backend/internal/products"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

type createProductRequest struct {
	SKU       string           `json:"sku" validate:"required,min=1"`
	Name      string           `json:"name" validate:"required,min=1"`
	Unit      string           `json:"unit,omitempty"`
	MinStock  int64            `json:"min_stock" validate:"gte=0"`
	MaxStock  *int64           `json:"max_stock,omitempty" validate:"omitempty,gte=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	CostPrice *decimal.Decimal `json:"cost_price,omitempty"`
}

type updateProductRequest struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Unit      *string          `json:"unit,omitempty" validate:"omitempty,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	CostPrice *decimal.Decimal `json:"cost_price,omitempty"`
}

type updateThresholdsRequest struct {
	MinStock int64  `json:"min_stock" validate:"gte=0"`
	MaxStock *int64 `json:"max_stock,omitempty" validate:"omitempty,gte=0"`
}

// ProductCreate registers a product in the caller's catalog.
func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.CreateProductInput{
			OrgID:    caller.OrgID,
			SKU:      validators.SanitizeString(payload.SKU, 64),
			Name:     validators.SanitizeString(payload.Name, 255),
			Unit:     payload.Unit,
			MinStock: payload.MinStock,
			MaxStock: payload.MaxStock,
		}
		if payload.UnitPrice != nil {
			input.UnitPrice = *payload.UnitPrice
		}
		if payload.CostPrice != nil {
			input.CostPrice = *payload.CostPrice
		}

		dto, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ProductUpdate changes descriptive fields. Omitted fields stay as they are.
func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), products.UpdateProductInput{
			OrgID:     caller.OrgID,
			ProductID: productID,
			Name:      payload.Name,
			Unit:      payload.Unit,
			UnitPrice: payload.UnitPrice,
			CostPrice: payload.CostPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductUpdateThresholds sets the min/max stock bounds the alert sweep uses.
func ProductUpdateThresholds(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateThresholdsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateThresholds(r.Context(), products.UpdateThresholdsInput{
			OrgID:     caller.OrgID,
			ProductID: productID,
			MinStock:  payload.MinStock,
			MaxStock:  payload.MaxStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductGet returns one product.
func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), caller.OrgID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductList pages through the catalog.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), products.ListProductsInput{
			OrgID:      caller.OrgID,
			ActiveOnly: strings.EqualFold(r.URL.Query().Get("active_only"), "true"),
			Limit:      limit,
			Cursor:     r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDeactivate retires a product from the catalog.
func ProductDeactivate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), caller.OrgID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusNoContent, nil)
	}
}
