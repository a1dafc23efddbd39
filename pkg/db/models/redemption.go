package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
)

// Redemption is a request to exchange points for product stock.
type Redemption struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID          uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	PointsSpent        int                    `gorm:"column:points_spent;not null"`
	Quantity           int                    `gorm:"column:quantity;not null;default:1"`
	Status             enums.RedemptionStatus `gorm:"column:status;not null;default:pending"`
	RequestedAt        time.Time              `gorm:"column:requested_at;autoCreateTime"`
	ApprovedAt         *time.Time             `gorm:"column:approved_at"`
	ApprovedBy         *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ProcessedAt        *time.Time             `gorm:"column:processed_at"`
	RejectionReason    *string                `gorm:"column:rejection_reason"`
	CancellationReason *string                `gorm:"column:cancellation_reason"`
	DeliveryNotes      *string                `gorm:"column:delivery_notes"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
