package redemptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

// Repository manages persistence for redemption requests. ApplyTransition is
// a guarded single-statement update: the WHERE clause pins the expected
// current status, so zero rows affected means the transition lost a race or
// was never legal.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, redemption *models.Redemption) error
	Find(ctx context.Context, id uuid.UUID) (*models.Redemption, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, from, to enums.RedemptionStatus, updates map[string]any) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Redemption, error)
	ListByStatus(ctx context.Context, status enums.RedemptionStatus, limit int, cursor *pagination.Cursor) ([]models.Redemption, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a redemptions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.WithContext(ctx).First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *repository) ApplyTransition(ctx context.Context, id uuid.UUID, from, to enums.RedemptionStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Redemption, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID), limit, cursor)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.RedemptionStatus, limit int, cursor *pagination.Cursor) ([]models.Redemption, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("status = ?", status), limit, cursor)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.Redemption, error) {
	query = query.Order("created_at DESC, id DESC").Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Redemption
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
