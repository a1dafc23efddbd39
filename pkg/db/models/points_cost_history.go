package models

import (
	"time"

	"github.com/google/uuid"
)

// PointsCostHistory preserves every price a product has been listed at.
type PointsCostHistory struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	PointsCost    int       `gorm:"column:points_cost;not null"`
	EffectiveFrom time.Time `gorm:"column:effective_from;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
