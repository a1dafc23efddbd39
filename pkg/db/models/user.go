package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email      string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName  string           `gorm:"column:first_name;not null"`
	LastName   string           `gorm:"column:last_name;not null"`
	IsActive   bool             `gorm:"column:is_active;not null;default:true"`
	SystemRole enums.SystemRole `gorm:"column:system_role;not null;default:member"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
