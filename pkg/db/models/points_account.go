package models

import (
	"time"

	"github.com/google/uuid"
)

// PointsAccount owns a user's balance. CurrentBalance must always equal
// TotalEarned - TotalRedeemed; every mutation writes a PointsTransaction
// in the same database transaction.
type PointsAccount struct {
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CurrentBalance int       `gorm:"column:current_balance;not null;default:0"`
	TotalEarned    int       `gorm:"column:total_earned;not null;default:0"`
	TotalRedeemed  int       `gorm:"column:total_redeemed;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
