package enums

import "fmt"

// PointsTransactionType classifies a journal entry's effect on the balance.
type PointsTransactionType string

const (
	PointsTransactionTypeEarned     PointsTransactionType = "earned"
	PointsTransactionTypeRedeemed   PointsTransactionType = "redeemed"
	PointsTransactionTypeAdjustment PointsTransactionType = "adjustment"
)

var validPointsTransactionTypes = []PointsTransactionType{
	PointsTransactionTypeEarned,
	PointsTransactionTypeRedeemed,
	PointsTransactionTypeAdjustment,
}

// String implements fmt.Stringer.
func (p PointsTransactionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PointsTransactionType.
func (p PointsTransactionType) IsValid() bool {
	for _, candidate := range validPointsTransactionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePointsTransactionType converts raw input into a PointsTransactionType.
func ParsePointsTransactionType(value string) (PointsTransactionType, error) {
	for _, candidate := range validPointsTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points transaction type %q", value)
}
