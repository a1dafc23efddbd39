package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/budgets"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/metrics"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubUsers struct {
	missing map[uuid.UUID]bool
}

func (s *stubUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return !s.missing[id], nil
}

type stubLedger struct {
	credits []accounts.EntryInput
	err     error
}

func (s *stubLedger) CreditTx(ctx context.Context, tx *gorm.DB, input accounts.EntryInput) (*models.PointsTransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.credits = append(s.credits, input)
	return &models.PointsTransaction{ID: uuid.New(), UserID: input.UserID, Points: input.Points}, nil
}

type stubBudgets struct {
	recorded []int
	verdict  *budgets.ValidationResult
	err      error
}

func (s *stubBudgets) ValidatePointsAward(ctx context.Context, adminID uuid.UUID, points int) (*budgets.ValidationResult, error) {
	if s.verdict != nil {
		return s.verdict, nil
	}
	return &budgets.ValidationResult{IsAllowed: true}, nil
}

func (s *stubBudgets) RecordPointsAwardedTx(ctx context.Context, tx *gorm.DB, adminID uuid.UUID, points int) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, points)
	return nil
}

func setupEventsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	eventsTable := `
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  starts_at DATETIME,
  total_points_pool INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  completed_at DATETIME,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	participantsTable := `
CREATE TABLE IF NOT EXISTS event_participants (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  points_awarded INTEGER,
  event_rank INTEGER,
  awarded_at DATETIME,
  awarded_by TEXT,
  created_at DATETIME,
  UNIQUE (event_id, user_id)
);`
	require.NoError(t, db.Exec(eventsTable).Error)
	require.NoError(t, db.Exec(participantsTable).Error)
	return db
}

type eventsFixture struct {
	svc     Service
	db      *gorm.DB
	ledger  *stubLedger
	budgets *stubBudgets
	users   *stubUsers
}

func newEventsFixture(t *testing.T) *eventsFixture {
	t.Helper()

	db := setupEventsTestDB(t)
	ledgerStub := &stubLedger{}
	budgetStub := &stubBudgets{}
	userStub := &stubUsers{missing: map[uuid.UUID]bool{}}
	log := logger.New(logger.Options{ServiceName: "events-test", Output: io.Discard})

	svc, err := NewService(NewRepository(db), &gormTxRunner{db: db}, userStub, ledgerStub, budgetStub, metrics.NewWorkflowMetrics(nil), log)
	require.NoError(t, err)
	return &eventsFixture{svc: svc, db: db, ledger: ledgerStub, budgets: budgetStub, users: userStub}
}

func (f *eventsFixture) createEvent(t *testing.T, pool int, status enums.EventStatus) *models.Event {
	t.Helper()

	starts := time.Now().UTC().Add(24 * time.Hour)
	event, err := f.svc.Create(context.Background(), CreateEventInput{
		Name:            "Hackathon",
		StartsAt:        &starts,
		TotalPointsPool: pool,
		CreatedBy:       uuid.New(),
	})
	require.NoError(t, err)
	if status != enums.EventStatusDraft {
		require.NoError(t, f.db.Model(&models.Event{}).
			Where("id = ?", event.ID).
			Update("status", status).Error)
		event.Status = status
	}
	return event
}

func (f *eventsFixture) register(t *testing.T, eventID uuid.UUID) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	participant := &models.EventParticipant{ID: uuid.New(), EventID: eventID, UserID: userID}
	require.NoError(t, f.db.Create(participant).Error)
	return userID
}

func TestServiceCreateValidation(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateEventInput{TotalPointsPool: 100, CreatedBy: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Create(ctx, CreateEventInput{Name: "No pool", CreatedBy: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceLifecycle(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 500, enums.EventStatusDraft)

	require.NoError(t, f.svc.Publish(ctx, event.ID))
	require.NoError(t, f.svc.Activate(ctx, event.ID))
	require.NoError(t, f.svc.Complete(ctx, event.ID))

	loaded, err := f.svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusCompleted, loaded.Status)
	assert.NotNil(t, loaded.CompletedAt)
}

func TestServicePublishRequiresStartTime(t *testing.T) {
	f := newEventsFixture(t)
	event, err := f.svc.Create(context.Background(), CreateEventInput{
		Name:            "No schedule",
		TotalPointsPool: 100,
		CreatedBy:       uuid.New(),
	})
	require.NoError(t, err)

	err = f.svc.Publish(context.Background(), event.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceIllegalTransitions(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()

	draft := f.createEvent(t, 100, enums.EventStatusDraft)
	err := f.svc.Activate(ctx, draft.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	completed := f.createEvent(t, 100, enums.EventStatusCompleted)
	err = f.svc.Cancel(ctx, completed.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceCancelFromDraftAndUpcoming(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()

	draft := f.createEvent(t, 100, enums.EventStatusDraft)
	require.NoError(t, f.svc.Cancel(ctx, draft.ID))

	upcoming := f.createEvent(t, 100, enums.EventStatusUpcoming)
	require.NoError(t, f.svc.Cancel(ctx, upcoming.ID))
}

func TestServiceTransitionUnknownEvent(t *testing.T) {
	f := newEventsFixture(t)

	err := f.svc.Publish(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceRegisterParticipant(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusActive)
	userID := uuid.New()

	participant, err := f.svc.RegisterParticipant(ctx, event.ID, userID)
	require.NoError(t, err)
	assert.Nil(t, participant.PointsAwarded)

	_, err = f.svc.RegisterParticipant(ctx, event.ID, userID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestServiceRegisterClosedEvent(t *testing.T) {
	f := newEventsFixture(t)
	event := f.createEvent(t, 100, enums.EventStatusDraft)

	_, err := f.svc.RegisterParticipant(context.Background(), event.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceRegisterUnknownUser(t *testing.T) {
	f := newEventsFixture(t)
	event := f.createEvent(t, 100, enums.EventStatusActive)
	ghost := uuid.New()
	f.users.missing[ghost] = true

	_, err := f.svc.RegisterParticipant(context.Background(), event.ID, ghost)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceAwardRequiresCompletedEvent(t *testing.T) {
	f := newEventsFixture(t)
	event := f.createEvent(t, 100, enums.EventStatusActive)
	userID := f.register(t, event.ID)

	_, err := f.svc.AwardPoints(context.Background(), AwardInput{
		EventID: event.ID, UserID: userID, Points: 50, AwardedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceAwardUnregisteredUser(t *testing.T) {
	f := newEventsFixture(t)
	event := f.createEvent(t, 100, enums.EventStatusCompleted)

	_, err := f.svc.AwardPoints(context.Background(), AwardInput{
		EventID: event.ID, UserID: uuid.New(), Points: 50, AwardedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceAwardSuccess(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	userID := f.register(t, event.ID)
	rank := 1

	participant, err := f.svc.AwardPoints(ctx, AwardInput{
		EventID: event.ID, UserID: userID, Points: 60, Rank: &rank, AwardedBy: uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, participant.PointsAwarded)
	assert.Equal(t, 60, *participant.PointsAwarded)
	require.NotNil(t, participant.EventRank)
	assert.Equal(t, 1, *participant.EventRank)
	assert.NotNil(t, participant.AwardedAt)

	require.Len(t, f.ledger.credits, 1)
	assert.Equal(t, userID, f.ledger.credits[0].UserID)
	assert.Equal(t, enums.PointsSourceEvent, f.ledger.credits[0].Source)
	require.Len(t, f.budgets.recorded, 1)
	assert.Equal(t, 60, f.budgets.recorded[0])

	remaining, err := f.svc.RemainingPool(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, remaining)
}

func TestServiceAwardDuplicate(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	userID := f.register(t, event.ID)

	_, err := f.svc.AwardPoints(ctx, AwardInput{
		EventID: event.ID, UserID: userID, Points: 30, AwardedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = f.svc.AwardPoints(ctx, AwardInput{
		EventID: event.ID, UserID: userID, Points: 30, AwardedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDuplicateAward, pkgerrors.As(err).Code())
	assert.Len(t, f.ledger.credits, 1)
}

func TestServiceAwardPoolExceeded(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	first := f.register(t, event.ID)
	second := f.register(t, event.ID)

	_, err := f.svc.AwardPoints(ctx, AwardInput{
		EventID: event.ID, UserID: first, Points: 80, AwardedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = f.svc.AwardPoints(ctx, AwardInput{
		EventID: event.ID, UserID: second, Points: 30, AwardedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePoolExceeded, pkgerrors.As(err).Code())

	remaining, err := f.svc.RemainingPool(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)
}

func TestServiceAwardBudgetFailureRollsBack(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	userID := f.register(t, event.ID)
	f.budgets.err = pkgerrors.New(pkgerrors.CodeBudgetExceeded, "monthly award budget exceeded")

	_, err := f.svc.AwardPoints(ctx, AwardInput{
		EventID: event.ID, UserID: userID, Points: 50, AwardedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeBudgetExceeded, pkgerrors.As(err).Code())

	participant, err := f.svc.ListParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, participant, 1)
	assert.Nil(t, participant[0].PointsAwarded)
	assert.Empty(t, f.ledger.credits)
}

func TestServiceAwardSoftBudgetOverrunWarns(t *testing.T) {
	db := setupEventsTestDB(t)
	ledgerStub := &stubLedger{}
	budgetStub := &stubBudgets{verdict: &budgets.ValidationResult{
		IsAllowed: true,
		IsWarning: true,
		Message:   "award of 60 points exceeds soft monthly budget of 50",
	}}
	userStub := &stubUsers{missing: map[uuid.UUID]bool{}}
	var logs bytes.Buffer
	log := logger.New(logger.Options{ServiceName: "events-test", Output: &logs})

	svc, err := NewService(NewRepository(db), &gormTxRunner{db: db}, userStub, ledgerStub, budgetStub, metrics.NewWorkflowMetrics(nil), log)
	require.NoError(t, err)
	f := &eventsFixture{svc: svc, db: db, ledger: ledgerStub, budgets: budgetStub, users: userStub}

	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	userID := f.register(t, event.ID)

	participant, err := svc.AwardPoints(context.Background(), AwardInput{
		EventID: event.ID, UserID: userID, Points: 60, AwardedBy: uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, participant.PointsAwarded)
	assert.Equal(t, 60, *participant.PointsAwarded)
	require.Len(t, budgetStub.recorded, 1)
	assert.Contains(t, logs.String(), "exceeds soft monthly budget")
}

func TestServiceBulkAwardAllOrNothing(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	first := f.register(t, event.ID)
	second := f.register(t, event.ID)

	_, err := f.svc.BulkAwardPoints(ctx, []AwardInput{
		{EventID: event.ID, UserID: first, Points: 70, AwardedBy: uuid.New()},
		{EventID: event.ID, UserID: second, Points: 70, AwardedBy: uuid.New()},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePoolExceeded, pkgerrors.As(err).Code())

	awards, err := f.svc.ListAwards(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, awards)

	remaining, err := f.svc.RemainingPool(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, remaining)
}

func TestServiceBulkAwardSuccess(t *testing.T) {
	f := newEventsFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 100, enums.EventStatusCompleted)
	first := f.register(t, event.ID)
	second := f.register(t, event.ID)

	awarded, err := f.svc.BulkAwardPoints(ctx, []AwardInput{
		{EventID: event.ID, UserID: first, Points: 60, AwardedBy: uuid.New()},
		{EventID: event.ID, UserID: second, Points: 40, AwardedBy: uuid.New()},
	})
	require.NoError(t, err)
	require.Len(t, awarded, 2)
	assert.Len(t, f.ledger.credits, 2)

	remaining, err := f.svc.RemainingPool(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}
