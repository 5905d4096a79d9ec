package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/api/responses"
	"github.com/stocklane/stocklane-backend/api/validators"
	"github.com/stocklane/stocklane-backend/internal/transfers"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

type createTransferRequest struct {
	ProductID      uuid.UUID  `json:"product_id" validate:"required"`
	FromLocationID *uuid.UUID `json:"from_location_id,omitempty"`
	ToLocationID   uuid.UUID  `json:"to_location_id" validate:"required"`
	Quantity       int64      `json:"quantity" validate:"required,gt=0"`
	Note           *string    `json:"note,omitempty"`
}

type decideTransferRequest struct {
	Note *string `json:"note,omitempty"`
}

// TransferCreate opens a pending transfer request.
func TransferCreate(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), transfers.CreateTransferInput{
			OrgID:          caller.OrgID,
			ProductID:      payload.ProductID,
			FromLocationID: payload.FromLocationID,
			ToLocationID:   payload.ToLocationID,
			Quantity:       payload.Quantity,
			Note:           payload.Note,
			RequestedBy:    caller.UserID,
			ActorRole:      caller.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type transferDecider func(r *http.Request, svc transfers.Service, input transfers.DecideTransferInput) (*transfers.TransferRequestDTO, error)

func transferDecision(svc transfers.Service, logg *logger.Logger, decide transferDecider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := pathUUID(r, chi.URLParam(r, "transferID"), "transfer id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decideTransferRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		dto, err := decide(r, svc, transfers.DecideTransferInput{
			OrgID:     caller.OrgID,
			RequestID: requestID,
			DecidedBy: caller.UserID,
			ActorRole: caller.Role,
			Note:      payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// TransferApprove executes the movement and settles the request.
func TransferApprove(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferDecision(svc, logg, func(r *http.Request, svc transfers.Service, input transfers.DecideTransferInput) (*transfers.TransferRequestDTO, error) {
		return svc.Approve(r.Context(), input)
	})
}

// TransferReject settles the request without moving stock.
func TransferReject(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferDecision(svc, logg, func(r *http.Request, svc transfers.Service, input transfers.DecideTransferInput) (*transfers.TransferRequestDTO, error) {
		return svc.Reject(r.Context(), input)
	})
}

// TransferCancel withdraws the caller's own pending request.
func TransferCancel(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferDecision(svc, logg, func(r *http.Request, svc transfers.Service, input transfers.DecideTransferInput) (*transfers.TransferRequestDTO, error) {
		return svc.Cancel(r.Context(), input)
	})
}

// TransferGet returns one transfer request.
func TransferGet(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := pathUUID(r, chi.URLParam(r, "transferID"), "transfer id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), caller.OrgID, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// TransferList pages through transfer requests, newest first.
func TransferList(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
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

		input := transfers.ListTransfersInput{
			OrgID:  caller.OrgID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.TransferRequestStatus(strings.ToLower(raw))
			input.Status = &status
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
