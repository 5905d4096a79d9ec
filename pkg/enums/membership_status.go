package enums

import "fmt"

// MembershipStatus tracks the lifecycle of an organization membership, from
// invitation through removal.
type MembershipStatus string

const (
	MembershipStatusInvited MembershipStatus = "invited"
	MembershipStatusActive  MembershipStatus = "active"
	MembershipStatusRemoved MembershipStatus = "removed"
	MembershipStatusPending MembershipStatus = "pending"
)

func (m MembershipStatus) String() string {
	return string(m)
}

func (m MembershipStatus) IsValid() bool {
	switch m {
	case MembershipStatusInvited, MembershipStatusActive, MembershipStatusRemoved, MembershipStatusPending:
		return true
	}
	return false
}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(value string) (MembershipStatus, error) {
	status := MembershipStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid membership status %q", value)
	}
	return status, nil
}
