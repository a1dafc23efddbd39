package budgets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
)

// Repository manages persistence for per-admin monthly budgets.
// ApplyAward is a guarded single-statement update so two concurrent awards
// by the same admin cannot both pass a hard limit check on stale data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, adminID uuid.UUID, month string) (*models.AdminBudget, error)
	Create(ctx context.Context, budget *models.AdminBudget) error
	UpdateLimits(ctx context.Context, id uuid.UUID, limit int, isHard bool, threshold int) error
	ApplyAward(ctx context.Context, adminID uuid.UUID, month string, points int, enforceHard bool) (int64, error)
	ListByMonth(ctx context.Context, month string) ([]models.AdminBudget, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a budgets repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, adminID uuid.UUID, month string) (*models.AdminBudget, error) {
	var budget models.AdminBudget
	err := r.db.WithContext(ctx).
		First(&budget, "admin_user_id = ? AND month = ?", adminID, month).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *repository) Create(ctx context.Context, budget *models.AdminBudget) error {
	return r.db.WithContext(ctx).Create(budget).Error
}

func (r *repository) UpdateLimits(ctx context.Context, id uuid.UUID, limit int, isHard bool, threshold int) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminBudget{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"budget_limit":      limit,
			"is_hard_limit":     isHard,
			"warning_threshold": threshold,
		}).Error
}

// ApplyAward increments the month's spent counter. With enforceHard the WHERE
// clause also requires the increment to fit under the limit, so zero rows
// affected means the award would breach a hard cap.
func (r *repository) ApplyAward(ctx context.Context, adminID uuid.UUID, month string, points int, enforceHard bool) (int64, error) {
	query := `
		UPDATE admin_budgets
		SET points_awarded = points_awarded + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE admin_user_id = ? AND month = ?
	`
	args := []any{points, adminID, month}
	if enforceHard {
		query += ` AND points_awarded + ? <= budget_limit`
		args = append(args, points)
	}
	res := r.db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected, res.Error
}

func (r *repository) ListByMonth(ctx context.Context, month string) ([]models.AdminBudget, error) {
	var rows []models.AdminBudget
	err := r.db.WithContext(ctx).
		Where("month = ?", month).
		Order("admin_user_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
