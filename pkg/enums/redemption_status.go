package enums

import "fmt"

// RedemptionStatus tracks the lifecycle of a redemption request.
type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusApproved  RedemptionStatus = "approved"
	RedemptionStatusRejected  RedemptionStatus = "rejected"
	RedemptionStatusDelivered RedemptionStatus = "delivered"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
)

var validRedemptionStatuses = []RedemptionStatus{
	RedemptionStatusPending,
	RedemptionStatusApproved,
	RedemptionStatusRejected,
	RedemptionStatusDelivered,
	RedemptionStatusCancelled,
}

// String implements fmt.Stringer.
func (r RedemptionStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RedemptionStatus.
func (r RedemptionStatus) IsValid() bool {
	for _, candidate := range validRedemptionStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (r RedemptionStatus) IsTerminal() bool {
	switch r {
	case RedemptionStatusDelivered, RedemptionStatusRejected, RedemptionStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseRedemptionStatus converts raw input into a RedemptionStatus.
func ParseRedemptionStatus(value string) (RedemptionStatus, error) {
	for _, candidate := range validRedemptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid redemption status %q", value)
}
