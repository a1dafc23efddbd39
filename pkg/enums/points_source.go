package enums

import "fmt"

// PointsSource identifies the originating workflow of a journal entry.
type PointsSource string

const (
	PointsSourceEvent      PointsSource = "event"
	PointsSourceRedemption PointsSource = "redemption"
	PointsSourceManual     PointsSource = "manual"
)

var validPointsSources = []PointsSource{
	PointsSourceEvent,
	PointsSourceRedemption,
	PointsSourceManual,
}

// String implements fmt.Stringer.
func (p PointsSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PointsSource.
func (p PointsSource) IsValid() bool {
	for _, candidate := range validPointsSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePointsSource converts raw input into a PointsSource.
func ParsePointsSource(value string) (PointsSource, error) {
	for _, candidate := range validPointsSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points source %q", value)
}
