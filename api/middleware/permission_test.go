package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stocklane/stocklane-backend/pkg/enums"
)

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		permission enums.Permission
		want       int
	}{
		{"owner may approve transfers", string(enums.MemberRoleOwner), enums.PermissionTransferApprove, http.StatusOK},
		{"viewer may read stock", string(enums.MemberRoleViewer), enums.PermissionStockRead, http.StatusOK},
		{"viewer may not move stock", string(enums.MemberRoleViewer), enums.PermissionStockMove, http.StatusForbidden},
		{"operator may not approve transfers", string(enums.MemberRoleOperator), enums.PermissionTransferApprove, http.StatusForbidden},
		{"unknown role denied", "intruder", enums.PermissionStockRead, http.StatusForbidden},
		{"missing role unauthorized", "", enums.PermissionStockRead, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequirePermission(tc.permission, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.role != "" {
				req = req.WithContext(WithRole(req.Context(), tc.role))
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}
