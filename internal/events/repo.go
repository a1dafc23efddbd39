package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

// Repository manages persistence for events and their participants.
//
// ApplyTransition and ApplyAward are guarded single-statement updates: the
// WHERE clause carries the state precondition, so zero rows affected means a
// concurrent writer got there first or the precondition never held.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	Find(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, status *enums.EventStatus, limit int, cursor *pagination.Cursor) ([]models.Event, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, from, to enums.EventStatus) (int64, error)
	TouchCompleted(ctx context.Context, id uuid.UUID) (int64, error)
	CreateParticipant(ctx context.Context, participant *models.EventParticipant) error
	FindParticipant(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error)
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error)
	ListAwarded(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error)
	SumAwarded(ctx context.Context, eventID uuid.UUID) (int, error)
	ApplyAward(ctx context.Context, eventID, userID uuid.UUID, points int, rank *int, awardedBy uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an events repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, status *enums.EventStatus, limit int, cursor *pagination.Cursor) ([]models.Event, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ApplyTransition(ctx context.Context, id uuid.UUID, from, to enums.EventStatus) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE events
		SET status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, to, id, from)
	return res.RowsAffected, res.Error
}

// TouchCompleted bumps the event row while requiring completed status. Inside
// a transaction the write takes the row lock, serializing concurrent awards
// against the same pool.
func (r *repository) TouchCompleted(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE events
		SET updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, id, enums.EventStatusCompleted)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateParticipant(ctx context.Context, participant *models.EventParticipant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *repository) FindParticipant(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error) {
	var participant models.EventParticipant
	err := r.db.WithContext(ctx).
		First(&participant, "event_id = ? AND user_id = ?", eventID, userID).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repository) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error) {
	var rows []models.EventParticipant
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAwarded(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error) {
	var rows []models.EventParticipant
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND points_awarded IS NOT NULL", eventID).
		Order("awarded_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumAwarded(ctx context.Context, eventID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.EventParticipant{}).
		Select("COALESCE(SUM(points_awarded), 0)").
		Where("event_id = ? AND points_awarded IS NOT NULL", eventID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ApplyAward marks the participant as paid out. The points_awarded IS NULL
// guard makes the mark idempotent; zero rows means already awarded.
func (r *repository) ApplyAward(ctx context.Context, eventID, userID uuid.UUID, points int, rank *int, awardedBy uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE event_participants
		SET points_awarded = ?,
			event_rank = ?,
			awarded_at = CURRENT_TIMESTAMP,
			awarded_by = ?
		WHERE event_id = ? AND user_id = ? AND points_awarded IS NULL
	`, points, rank, awardedBy, eventID, userID)
	return res.RowsAffected, res.Error
}
