package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stocklane/stocklane-backend/api/responses"
	"github.com/stocklane/stocklane-backend/api/validators"
	"github.com/stocklane/stocklane-backend/internal/alerts"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

// AlertList pages through the caller's alerts, newest first.
func AlertList(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
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

		input := alerts.ListAlertsInput{
			OrgID:  caller.OrgID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.AlertStatus(strings.ToLower(raw))
			input.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			alertType := enums.AlertType(strings.ToLower(raw))
			input.Type = &alertType
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AlertEvaluate runs an on-demand evaluation sweep for the caller's tenant and
// returns the changes it made. The cron worker runs the same sweep on a
// schedule; this endpoint exists for operators who just changed thresholds.
func AlertEvaluate(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		changes, err := svc.Evaluate(r.Context(), caller.OrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if changes == nil {
			changes = []alerts.AlertChange{}
		}
		responses.WriteSuccess(w, changes)
	}
}

// AlertGet returns one alert.
func AlertGet(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := pathUUID(r, chi.URLParam(r, "alertID"), "alert id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), caller.OrgID, alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
