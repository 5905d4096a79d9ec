package middleware

import (
	"net/http"

	"github.com/stocklane/stocklane-backend/api/responses"
	pkgAuth "github.com/stocklane/stocklane-backend/pkg/auth"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	pkgerrors "github.com/stocklane/stocklane-backend/pkg/errors"
	"github.com/stocklane/stocklane-backend/pkg/logger"
)

// RequirePermission gates a route on the capability table. The role comes from
// the authenticated context; the permission names the operation, not the URL.
func RequirePermission(permission enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if role == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if !pkgAuth.Authorize(role, permission) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
