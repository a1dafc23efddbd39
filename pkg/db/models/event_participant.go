package models

import (
	"time"

	"github.com/google/uuid"
)

// EventParticipant registers a user for an event. (EventID, UserID) is
// unique; a non-nil PointsAwarded marks the participant as already paid out.
type EventParticipant struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID       uuid.UUID  `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_event_participants_event_user"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_event_participants_event_user"`
	PointsAwarded *int       `gorm:"column:points_awarded"`
	EventRank     *int       `gorm:"column:event_rank"`
	AwardedAt     *time.Time `gorm:"column:awarded_at"`
	AwardedBy     *uuid.UUID `gorm:"column:awarded_by;type:uuid"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
