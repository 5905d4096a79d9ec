package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stocklane/stocklane-backend/api/responses"
	"github.com/stocklane/stocklane-backend/internal/stock"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

// StockCellGet returns the quantity of one (product, location) cell. A pair no
// movement ever touched reads as zero rather than 404.
func StockCellGet(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
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
		locationID, err := pathUUID(r, chi.URLParam(r, "locationID"), "location id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetQuantity(r.Context(), caller.OrgID, productID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// StockCellList returns the caller's stock cells, optionally narrowed to one
// product or location.
func StockCellList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters stock.CellFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			id, err := pathUUID(r, raw, "product id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters.ProductID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("location_id")); raw != "" {
			id, err := pathUUID(r, raw, "location id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters.LocationID = &id
		}

		cells, err := svc.ListCells(r.Context(), caller.OrgID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cells)
	}
}
