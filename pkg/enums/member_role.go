package enums

import "fmt"

// MemberRole is an organization-level permissions role, ordered here from
// most to least privileged.
type MemberRole string

const (
	MemberRoleOwner    MemberRole = "owner"
	MemberRoleAdmin    MemberRole = "admin"
	MemberRoleManager  MemberRole = "manager"
	MemberRoleOperator MemberRole = "operator"
	MemberRoleViewer   MemberRole = "viewer"
)

func (m MemberRole) String() string {
	return string(m)
}

func (m MemberRole) IsValid() bool {
	switch m {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleManager, MemberRoleOperator, MemberRoleViewer:
		return true
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", value)
	}
	return role, nil
}
