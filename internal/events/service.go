package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/budgets"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/metrics"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ledger interface {
	CreditTx(ctx context.Context, tx *gorm.DB, input accounts.EntryInput) (*models.PointsTransaction, error)
}

type budgetGuard interface {
	ValidatePointsAward(ctx context.Context, adminID uuid.UUID, points int) (*budgets.ValidationResult, error)
	RecordPointsAwardedTx(ctx context.Context, tx *gorm.DB, adminID uuid.UUID, points int) error
}

// CreateEventInput carries everything needed to open a draft event.
type CreateEventInput struct {
	Name            string
	Description     *string
	StartsAt        *time.Time
	TotalPointsPool int
	CreatedBy       uuid.UUID
}

// AwardInput is one participant payout from the event's pool.
type AwardInput struct {
	EventID   uuid.UUID
	UserID    uuid.UUID
	Points    int
	Rank      *int
	AwardedBy uuid.UUID
}

// Service runs the event lifecycle and pays winners out of a fixed pool.
//
// Lifecycle: draft -> upcoming -> active -> completed, with cancellation
// allowed from draft and upcoming only. Awards are possible only on completed
// events, at most once per participant, and the sum of all awards can never
// exceed the pool.
type Service interface {
	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, status *enums.EventStatus, params pagination.Params) ([]models.Event, string, error)
	Publish(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	RegisterParticipant(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error)
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error)
	ListAwards(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error)
	AwardPoints(ctx context.Context, input AwardInput) (*models.EventParticipant, error)
	BulkAwardPoints(ctx context.Context, inputs []AwardInput) ([]models.EventParticipant, error)
	RemainingPool(ctx context.Context, eventID uuid.UUID) (int, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	users   userChecker
	ledger  ledger
	budgets budgetGuard
	metrics *metrics.WorkflowMetrics
	log     *logger.Logger
}

// NewService wires the event workflow with its collaborators.
func NewService(repo Repository, tx txRunner, users userChecker, ledger ledger, budgets budgetGuard, workflowMetrics *metrics.WorkflowMetrics, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user checker required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("points ledger required")
	}
	if budgets == nil {
		return nil, fmt.Errorf("budget guard required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		users:   users,
		ledger:  ledger,
		budgets: budgets,
		metrics: workflowMetrics,
		log:     log,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name required")
	}
	if input.TotalPointsPool <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points pool must be positive")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}

	event := &models.Event{
		ID:              uuid.New(),
		Name:            input.Name,
		Description:     input.Description,
		StartsAt:        input.StartsAt,
		TotalPointsPool: input.TotalPointsPool,
		Status:          enums.EventStatusDraft,
		CreatedBy:       input.CreatedBy,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
	}
	return event, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event, nil
}

func (s *service) List(ctx context.Context, status *enums.EventStatus, params pagination.Params) ([]models.Event, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, status, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// Publish moves a draft event to upcoming. A start time must be set first.
func (s *service) Publish(ctx context.Context, id uuid.UUID) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if event.StartsAt == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event needs a start time before publishing")
	}
	return s.transition(ctx, id, enums.EventStatusDraft, enums.EventStatusUpcoming)
}

func (s *service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, enums.EventStatusUpcoming, enums.EventStatusActive)
}

// Complete closes an active event and stamps CompletedAt. Awards become
// possible from this point on.
func (s *service) Complete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ApplyTransition(ctx, id, enums.EventStatusActive, enums.EventStatusCompleted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete event")
		}
		if affected == 0 {
			return s.transitionConflict(ctx, repo, id, enums.EventStatusActive, enums.EventStatusCompleted)
		}
		now := time.Now().UTC()
		err = tx.WithContext(ctx).
			Model(&models.Event{}).
			Where("id = ?", id).
			Update("completed_at", now).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp completion time")
		}
		return nil
	})
}

// Cancel retires an event that has not started distributing anything yet.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, from := range []enums.EventStatus{enums.EventStatusDraft, enums.EventStatusUpcoming} {
			affected, err := repo.ApplyTransition(ctx, id, from, enums.EventStatusCancelled)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel event")
			}
			if affected > 0 {
				return nil
			}
		}
		return s.transitionConflict(ctx, repo, id, enums.EventStatusUpcoming, enums.EventStatusCancelled)
	})
}

func (s *service) transition(ctx context.Context, id uuid.UUID, from, to enums.EventStatus) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ApplyTransition(ctx, id, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition event")
		}
		if affected == 0 {
			return s.transitionConflict(ctx, repo, id, from, to)
		}
		return nil
	})
}

// transitionConflict reloads the row to tell a missing event apart from a
// state precondition failure.
func (s *service) transitionConflict(ctx context.Context, repo Repository, id uuid.UUID, from, to enums.EventStatus) error {
	event, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move event from %s to %s", event.Status, to)).
		WithDetails(map[string]any{"current": event.Status.String(), "target": to.String()})
}

func (s *service) RegisterParticipant(ctx context.Context, eventID, userID uuid.UUID) (*models.EventParticipant, error) {
	if eventID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id and user id required")
	}

	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	switch event.Status {
	case enums.EventStatusUpcoming, enums.EventStatusActive:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("registration closed for %s event", event.Status))
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	participant := &models.EventParticipant{ID: uuid.New(), EventID: eventID, UserID: userID}
	if err := s.repo.CreateParticipant(ctx, participant); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already registered for event")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register participant")
	}
	return participant, nil
}

func (s *service) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list participants")
	}
	return rows, nil
}

func (s *service) ListAwards(ctx context.Context, eventID uuid.UUID) ([]models.EventParticipant, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAwarded(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list awards")
	}
	return rows, nil
}

// AwardPoints pays one participant out of the event pool. The whole award,
// from the pool check to the ledger credit, is a single transaction; the
// touch on the event row serializes concurrent awards against the same pool.
func (s *service) AwardPoints(ctx context.Context, input AwardInput) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var innerErr error
		participant, innerErr = s.awardTx(ctx, tx, input)
		return innerErr
	})
	if err != nil {
		s.metrics.ObserveAward("failure")
		return nil, err
	}
	s.metrics.ObserveAward("success")
	s.metrics.AddPoints("credit", input.Points)
	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"event_id": input.EventID.String(),
		"user_id":  input.UserID.String(),
		"points":   input.Points,
	}), "event points awarded")
	return participant, nil
}

// BulkAwardPoints applies every award or none: one failing precondition rolls
// the whole batch back.
func (s *service) BulkAwardPoints(ctx context.Context, inputs []AwardInput) ([]models.EventParticipant, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one award required")
	}

	awarded := make([]models.EventParticipant, 0, len(inputs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, input := range inputs {
			participant, innerErr := s.awardTx(ctx, tx, input)
			if innerErr != nil {
				return innerErr
			}
			awarded = append(awarded, *participant)
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveAward("failure")
		return nil, err
	}
	for _, input := range inputs {
		s.metrics.ObserveAward("success")
		s.metrics.AddPoints("credit", input.Points)
	}
	return awarded, nil
}

func (s *service) awardTx(ctx context.Context, tx *gorm.DB, input AwardInput) (*models.EventParticipant, error) {
	if input.EventID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id and user id required")
	}
	if input.AwardedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "awarding admin id required")
	}
	repo := s.repo.WithTx(tx)

	// Locks the event row and requires completed status in one statement.
	affected, err := repo.TouchCompleted(ctx, input.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock event")
	}
	if affected == 0 {
		return nil, s.transitionConflict(ctx, repo, input.EventID, enums.EventStatusCompleted, enums.EventStatusCompleted)
	}

	participant, err := repo.FindParticipant(ctx, input.EventID, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not registered for this event")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
	}
	if participant.PointsAwarded != nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateAward, "participant already awarded").
			WithDetails(map[string]any{"points_awarded": *participant.PointsAwarded})
	}

	if input.Points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}

	event, err := repo.Find(ctx, input.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	distributed, err := repo.SumAwarded(ctx, input.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum awarded points")
	}
	if distributed+input.Points > event.TotalPointsPool {
		return nil, pkgerrors.New(pkgerrors.CodePoolExceeded, "award exceeds remaining points pool").
			WithDetails(map[string]any{
				"pool":      event.TotalPointsPool,
				"remaining": event.TotalPointsPool - distributed,
				"requested": input.Points,
			})
	}

	// The hard limit is enforced by the guarded budget increment below; the
	// verdict here only carries the soft-limit and threshold warnings.
	verdict, err := s.budgets.ValidatePointsAward(ctx, input.AwardedBy, input.Points)
	if err != nil {
		return nil, err
	}
	if verdict.IsWarning {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{
			"admin_id": input.AwardedBy.String(),
			"event_id": input.EventID.String(),
			"points":   input.Points,
		}), verdict.Message)
	}

	if err := s.budgets.RecordPointsAwardedTx(ctx, tx, input.AwardedBy, input.Points); err != nil {
		return nil, err
	}

	affected, err = repo.ApplyAward(ctx, input.EventID, input.UserID, input.Points, input.Rank, input.AwardedBy)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark award")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateAward, "participant already awarded")
	}

	sourceID := input.EventID
	_, err = s.ledger.CreditTx(ctx, tx, accounts.EntryInput{
		UserID:      input.UserID,
		Points:      input.Points,
		Source:      enums.PointsSourceEvent,
		SourceID:    &sourceID,
		Description: fmt.Sprintf("award for event %q", event.Name),
	})
	if err != nil {
		return nil, err
	}

	return repo.FindParticipant(ctx, input.EventID, input.UserID)
}

func (s *service) RemainingPool(ctx context.Context, eventID uuid.UUID) (int, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return 0, err
	}
	distributed, err := s.repo.SumAwarded(ctx, eventID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum awarded points")
	}
	return event.TotalPointsPool - distributed, nil
}
