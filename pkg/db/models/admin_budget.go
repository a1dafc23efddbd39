package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminBudget caps how many points one administrator may award in one
// calendar month. Month is stored as "YYYY-MM"; a new month means a new row.
type AdminBudget struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdminUserID      uuid.UUID `gorm:"column:admin_user_id;type:uuid;not null;uniqueIndex:idx_admin_budgets_admin_month"`
	Month            string    `gorm:"column:month;not null;uniqueIndex:idx_admin_budgets_admin_month"`
	BudgetLimit      int       `gorm:"column:budget_limit;not null"`
	PointsAwarded    int       `gorm:"column:points_awarded;not null;default:0"`
	IsHardLimit      bool      `gorm:"column:is_hard_limit;not null;default:true"`
	WarningThreshold int       `gorm:"column:warning_threshold;not null;default:80"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
