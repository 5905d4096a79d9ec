package enums

import "fmt"

// MovementKind maps to the movement_kind enum in Postgres.
type MovementKind string

const (
	MovementKindIn         MovementKind = "in"
	MovementKindOut        MovementKind = "out"
	MovementKindTransfer   MovementKind = "transfer"
	MovementKindAdjustment MovementKind = "adjustment"
	MovementKindSale       MovementKind = "sale"
	MovementKindPurchase   MovementKind = "purchase"
)

var validMovementKinds = []MovementKind{
	MovementKindIn,
	MovementKindOut,
	MovementKindTransfer,
	MovementKindAdjustment,
	MovementKindSale,
	MovementKindPurchase,
}

// String implements fmt.Stringer.
func (k MovementKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known MovementKind.
func (k MovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// RequiresSource reports whether movements of this kind must debit a source cell.
func (k MovementKind) RequiresSource() bool {
	switch k {
	case MovementKindOut, MovementKindSale, MovementKindTransfer:
		return true
	}
	return false
}

// RequiresDestination reports whether movements of this kind must credit a destination cell.
func (k MovementKind) RequiresDestination() bool {
	switch k {
	case MovementKindIn, MovementKindPurchase, MovementKindTransfer:
		return true
	}
	return false
}

// ParseMovementKind converts raw input into a MovementKind.
func ParseMovementKind(value string) (MovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement kind %q", value)
}
