package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/api/responses"
	"github.com/stocklane/stocklane-backend/api/validators"
	"github.com/stocklane/stocklane-backend/internal/movements"
	pkgauth "github.com/stocklane/stocklane-backend/pkg/auth"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

type applyMovementRequest struct {
	ProductID      uuid.UUID  `json:"product_id" validate:"required"`
	FromLocationID *uuid.UUID `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID `json:"to_location_id,omitempty"`
	Quantity       int64      `json:"quantity" validate:"required,gt=0"`
	Kind           string     `json:"kind" validate:"required"`
	Reason         *string    `json:"reason,omitempty"`
	Reference      *string    `json:"reference,omitempty"`
}

// MovementApply records a stock movement through the engine.
func MovementApply(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyMovementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.MovementKind(strings.ToLower(strings.TrimSpace(payload.Kind)))
		// Adjustments rewrite history outside the normal flow of goods, so they
		// need a stronger grant than ordinary movements.
		if kind == enums.MovementKindAdjustment && !pkgauth.Authorize(enums.MemberRole(caller.Role), enums.PermissionStockAdjust) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "adjustments require elevated access"))
			return
		}

		dto, err := svc.Apply(r.Context(), movements.ApplyMovementInput{
			OrgID:          caller.OrgID,
			ProductID:      payload.ProductID,
			FromLocationID: payload.FromLocationID,
			ToLocationID:   payload.ToLocationID,
			Quantity:       payload.Quantity,
			Kind:           kind,
			Reason:         payload.Reason,
			Reference:      payload.Reference,
			PerformedBy:    caller.UserID,
			ActorRole:      caller.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// MovementGet returns one movement record.
func MovementGet(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movementID, err := pathUUID(r, chi.URLParam(r, "movementID"), "movement id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), caller.OrgID, movementID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// MovementList pages through the movement log, newest first.
func MovementList(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
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

		input := movements.ListMovementsInput{
			OrgID:  caller.OrgID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			id, err := pathUUID(r, raw, "product id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ProductID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("location_id")); raw != "" {
			id, err := pathUUID(r, raw, "location id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.LocationID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind := enums.MovementKind(strings.ToLower(raw))
			input.Kind = &kind
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
