package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stocklane/stocklane-backend/api/responses"
	"github.com/stocklane/stocklane-backend/api/validators"
	"github.com/stocklane/stocklane-backend/internal/locations"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

type createLocationRequest struct {
	Type     string  `json:"type" validate:"required"`
	Name     string  `json:"name" validate:"required,min=1"`
	Address  *string `json:"address,omitempty"`
	Capacity *int64  `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}

type updateLocationRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Address  *string `json:"address,omitempty"`
	Capacity *int64  `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// LocationCreate registers a warehouse or store for the caller's tenant.
func LocationCreate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createLocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), caller.OrgID, locations.CreateLocationInput{
			Type:     enums.LocationType(strings.ToLower(strings.TrimSpace(payload.Type))),
			Name:     validators.SanitizeString(payload.Name, 255),
			Address:  payload.Address,
			Capacity: payload.Capacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// LocationUpdate adjusts the mutable fields of a location.
func LocationUpdate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := pathUUID(r, chi.URLParam(r, "locationID"), "location id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateLocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), caller.OrgID, locationID, locations.UpdateLocationInput{
			Name:     payload.Name,
			Address:  payload.Address,
			Capacity: payload.Capacity,
			IsActive: payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// LocationGet returns one location.
func LocationGet(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := pathUUID(r, chi.URLParam(r, "locationID"), "location id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), caller.OrgID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// LocationList returns the tenant's locations, optionally filtered by type.
func LocationList(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var locType *enums.LocationType
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			parsed := enums.LocationType(strings.ToLower(raw))
			locType = &parsed
		}

		dtos, err := svc.List(r.Context(), caller.OrgID, locType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

// LocationDeactivate retires a location. Historical movements keep referencing it.
func LocationDeactivate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := pathUUID(r, chi.URLParam(r, "locationID"), "location id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), caller.OrgID, locationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusNoContent, nil)
	}
}
