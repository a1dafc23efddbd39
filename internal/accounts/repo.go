package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

// Repository manages persistence for points accounts and their journal.
// The Apply* helpers are guarded single-statement updates: the WHERE clause
// carries the balance precondition so concurrent writers against the same
// account cannot both pass a check against stale data. Zero rows affected
// means the guard failed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, userID uuid.UUID) (*models.PointsAccount, error)
	Create(ctx context.Context, account *models.PointsAccount) error
	ApplyCredit(ctx context.Context, userID uuid.UUID, points int) (int64, error)
	ApplyDebit(ctx context.Context, userID uuid.UUID, points int) (int64, error)
	ApplyRefund(ctx context.Context, userID uuid.UUID, points int) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.PointsTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PointsTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, userID uuid.UUID) (*models.PointsAccount, error) {
	var account models.PointsAccount
	if err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.PointsAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) ApplyCredit(ctx context.Context, userID uuid.UUID, points int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE points_accounts
		SET current_balance = current_balance + ?,
			total_earned = total_earned + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, points, points, userID)
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyDebit(ctx context.Context, userID uuid.UUID, points int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE points_accounts
		SET current_balance = current_balance - ?,
			total_redeemed = total_redeemed + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND current_balance >= ?
	`, points, points, userID, points)
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyRefund(ctx context.Context, userID uuid.UUID, points int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE points_accounts
		SET current_balance = current_balance + ?,
			total_redeemed = total_redeemed - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND total_redeemed >= ?
	`, points, points, userID, points)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PointsTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PointsTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
