package enums

import "fmt"

// AlertType classifies a stock cell against the product thresholds.
type AlertType string

const (
	AlertTypeOutOfStock AlertType = "out_of_stock"
	AlertTypeLowStock   AlertType = "low_stock"
	AlertTypeOverstock  AlertType = "overstock"
)

var validAlertTypes = []AlertType{
	AlertTypeOutOfStock,
	AlertTypeLowStock,
	AlertTypeOverstock,
}

// String implements fmt.Stringer.
func (t AlertType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AlertType.
func (t AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}

// AlertStatus tracks whether an alert is currently raised.
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

var validAlertStatuses = []AlertStatus{
	AlertStatusActive,
	AlertStatusResolved,
}

// IsValid reports whether the value is a known AlertStatus.
func (s AlertStatus) IsValid() bool {
	for _, candidate := range validAlertStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
