package enums

import "fmt"

// Permission names a core operation an actor may be granted, independent of URL shape.
type Permission string

const (
	PermissionStockMove        Permission = "stock:move"
	PermissionStockAdjust      Permission = "stock:adjust"
	PermissionStockRead        Permission = "stock:read"
	PermissionTransferRequest  Permission = "transfer:request"
	PermissionTransferApprove  Permission = "transfer:approve"
	PermissionAlertRead        Permission = "alert:read"
	PermissionAlertEvaluate    Permission = "alert:evaluate"
	PermissionLocationManage   Permission = "location:manage"
	PermissionProductThreshold Permission = "product:threshold"
)

var validPermissions = []Permission{
	PermissionStockMove,
	PermissionStockAdjust,
	PermissionStockRead,
	PermissionTransferRequest,
	PermissionTransferApprove,
	PermissionAlertRead,
	PermissionAlertEvaluate,
	PermissionLocationManage,
	PermissionProductThreshold,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
