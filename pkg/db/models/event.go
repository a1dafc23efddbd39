package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
)

// Event is a competition with a fixed points pool distributed to winners.
type Event struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	Description     *string           `gorm:"column:description"`
	StartsAt        *time.Time        `gorm:"column:starts_at"`
	TotalPointsPool int               `gorm:"column:total_points_pool;not null"`
	Status          enums.EventStatus `gorm:"column:status;not null;default:draft"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
	CreatedBy       uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
