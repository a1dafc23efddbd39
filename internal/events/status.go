package events

import (
	"time"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
)

// EffectiveStatus reports the status an event should display at the given
// time. An upcoming event whose start time has passed reads as active without
// writing the row; the stored status only changes through the lifecycle
// operations.
func EffectiveStatus(event *models.Event, now time.Time) enums.EventStatus {
	if event == nil {
		return ""
	}
	if event.Status == enums.EventStatusUpcoming && event.StartsAt != nil && !event.StartsAt.After(now) {
		return enums.EventStatusActive
	}
	return event.Status
}
