package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/api/middleware"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
)

// identity is the authenticated caller every core operation is scoped by.
type identity struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

func identityFromRequest(r *http.Request) (*identity, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	orgID := middleware.OrgIDFromContext(r.Context())
	if orgID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "org context missing")
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	oid, err := uuid.Parse(orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid org id")
	}

	return &identity{
		UserID: uid,
		OrgID:  oid,
		Role:   middleware.RoleFromContext(r.Context()),
	}, nil
}

func pathUUID(r *http.Request, value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
