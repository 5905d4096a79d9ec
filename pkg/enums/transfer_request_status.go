package enums

import "fmt"

// TransferRequestStatus tracks the lifecycle of a transfer request.
type TransferRequestStatus string

const (
	TransferRequestStatusPending   TransferRequestStatus = "pending"
	TransferRequestStatusApproved  TransferRequestStatus = "approved"
	TransferRequestStatusRejected  TransferRequestStatus = "rejected"
	TransferRequestStatusCancelled TransferRequestStatus = "cancelled"
)

var validTransferRequestStatuses = []TransferRequestStatus{
	TransferRequestStatusPending,
	TransferRequestStatusApproved,
	TransferRequestStatusRejected,
	TransferRequestStatusCancelled,
}

// String implements fmt.Stringer.
func (s TransferRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransferRequestStatus.
func (s TransferRequestStatus) IsValid() bool {
	for _, candidate := range validTransferRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s TransferRequestStatus) IsTerminal() bool {
	return s == TransferRequestStatusApproved ||
		s == TransferRequestStatusRejected ||
		s == TransferRequestStatusCancelled
}

// ParseTransferRequestStatus converts raw input into a TransferRequestStatus.
func ParseTransferRequestStatus(value string) (TransferRequestStatus, error) {
	for _, candidate := range validTransferRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer request status %q", value)
}
