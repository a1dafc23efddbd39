package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
)

// PointsTransaction is an immutable journal entry for one balance change.
// Points is always stored positive; Type carries the direction. BalanceAfter
// is the account balance immediately after the mutation and acts as the
// ledger's self-check.
type PointsTransaction struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Points       int                         `gorm:"column:points;not null"`
	Type         enums.PointsTransactionType `gorm:"column:type;not null"`
	Source       enums.PointsSource          `gorm:"column:source;not null"`
	SourceID     *uuid.UUID                  `gorm:"column:source_id;type:uuid"`
	Description  string                      `gorm:"column:description;not null"`
	BalanceAfter int                         `gorm:"column:balance_after;not null"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
