package auth

import "github.com/stocklane/stocklane-backend/pkg/enums"

// capabilities is the explicit role -> permission dispatch table the API checks
// before any core call. Keyed by enum, not by URL shape.
var capabilities = map[enums.MemberRole]map[enums.Permission]struct{}{
	enums.MemberRoleOwner: permissionSet(
		enums.PermissionStockMove,
		enums.PermissionStockAdjust,
		enums.PermissionStockRead,
		enums.PermissionTransferRequest,
		enums.PermissionTransferApprove,
		enums.PermissionAlertRead,
		enums.PermissionAlertEvaluate,
		enums.PermissionLocationManage,
		enums.PermissionProductThreshold,
	),
	enums.MemberRoleAdmin: permissionSet(
		enums.PermissionStockMove,
		enums.PermissionStockAdjust,
		enums.PermissionStockRead,
		enums.PermissionTransferRequest,
		enums.PermissionTransferApprove,
		enums.PermissionAlertRead,
		enums.PermissionAlertEvaluate,
		enums.PermissionLocationManage,
		enums.PermissionProductThreshold,
	),
	enums.MemberRoleManager: permissionSet(
		enums.PermissionStockMove,
		enums.PermissionStockAdjust,
		enums.PermissionStockRead,
		enums.PermissionTransferRequest,
		enums.PermissionTransferApprove,
		enums.PermissionAlertRead,
		enums.PermissionProductThreshold,
	),
	enums.MemberRoleOperator: permissionSet(
		enums.PermissionStockMove,
		enums.PermissionStockRead,
		enums.PermissionTransferRequest,
		enums.PermissionAlertRead,
	),
	enums.MemberRoleViewer: permissionSet(
		enums.PermissionStockRead,
		enums.PermissionAlertRead,
	),
}

func permissionSet(perms ...enums.Permission) map[enums.Permission]struct{} {
	set := make(map[enums.Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Authorize reports whether the role is granted the permission.
func Authorize(role enums.MemberRole, permission enums.Permission) bool {
	grants, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = grants[permission]
	return ok
}
