package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Identity and role resolution happen upstream of the core; the token only
// carries the results.
type AccessTokenPayload struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   enums.MemberRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"user_id"`
	OrgID  uuid.UUID        `json:"org_id"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
