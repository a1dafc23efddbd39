package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// EntryInput captures the data a single ledger mutation requires.
type EntryInput struct {
	UserID      uuid.UUID
	Points      int
	Source      enums.PointsSource
	SourceID    *uuid.UUID
	Description string
}

// Service is the points ledger: it owns the account balance and guarantees
// that every balance mutation lands together with its journal entry.
//
// The *Tx variants run against a caller-supplied transaction so the award and
// redemption workflows can fold a ledger mutation into their own atomic unit.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.PointsAccount, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.PointsAccount, error)
	HasSufficientBalance(ctx context.Context, userID uuid.UUID, points int) (bool, error)
	Credit(ctx context.Context, input EntryInput) (*models.PointsTransaction, error)
	Debit(ctx context.Context, input EntryInput) (*models.PointsTransaction, error)
	CreditTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.PointsTransaction, error)
	DebitTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.PointsTransaction, error)
	RefundTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.PointsTransaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointsTransaction, string, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	users userChecker
}

// NewService wires the ledger service with its repository and collaborators.
func NewService(repo Repository, tx txRunner, users userChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user checker required")
	}
	return &service{repo: repo, tx: tx, users: users}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.PointsAccount, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	account, err := s.repo.Find(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points account")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	account = &models.PointsAccount{UserID: userID}
	if err := s.repo.Create(ctx, account); err != nil {
		// Lost a creation race; the winner's row is the account.
		if db.IsUniqueViolation(err, "") {
			return s.Get(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create points account")
	}
	return account, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.PointsAccount, error) {
	account, err := s.repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "points account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points account")
	}
	return account, nil
}

func (s *service) HasSufficientBalance(ctx context.Context, userID uuid.UUID, points int) (bool, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return account.CurrentBalance >= points, nil
}

func (s *service) Credit(ctx context.Context, input EntryInput) (*models.PointsTransaction, error) {
	var txn *models.PointsTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var innerErr error
		txn, innerErr = s.CreditTx(ctx, tx, input)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Debit(ctx context.Context, input EntryInput) (*models.PointsTransaction, error) {
	var txn *models.PointsTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var innerErr error
		txn, innerErr = s.DebitTx(ctx, tx, input)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreditTx adds points to the account and journals the entry inside tx.
func (s *service) CreditTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.PointsTransaction, error) {
	if err := s.validateEntry(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	if _, err := s.ensureAccountTx(ctx, repo, input.UserID); err != nil {
		return nil, err
	}

	affected, err := repo.ApplyCredit(ctx, input.UserID, input.Points)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply credit")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "points account not found")
	}

	return s.journalTx(ctx, repo, input, enums.PointsTransactionTypeEarned)
}

// DebitTx removes points from the account inside tx. The balance guard lives
// in the UPDATE itself, so a concurrent debit that drained the account surfaces
// here as InsufficientBalance rather than a corrupted balance.
func (s *service) DebitTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.PointsTransaction, error) {
	if err := s.validateEntry(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	if _, err := s.ensureAccountTx(ctx, repo, input.UserID); err != nil {
		return nil, err
	}

	affected, err := repo.ApplyDebit(ctx, input.UserID, input.Points)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply debit")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient points balance").
			WithDetails(map[string]any{"requested": input.Points})
	}

	return s.journalTx(ctx, repo, input, enums.PointsTransactionTypeRedeemed)
}

// RefundTx reverses an earlier debit: the balance comes back and TotalRedeemed
// shrinks, leaving the account exactly as if the debit never happened.
func (s *service) RefundTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.PointsTransaction, error) {
	if err := s.validateEntry(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyRefund(ctx, input.UserID, input.Points)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply refund")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "refund exceeds redeemed total")
	}

	return s.journalTx(ctx, repo, input, enums.PointsTransactionTypeAdjustment)
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointsTransaction, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListTransactions(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) validateEntry(input EntryInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	if !input.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid points source %q", input.Source))
	}
	return nil
}

func (s *service) ensureAccountTx(ctx context.Context, repo Repository, userID uuid.UUID) (*models.PointsAccount, error) {
	account, err := repo.Find(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points account")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	account = &models.PointsAccount{UserID: userID}
	if err := repo.Create(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create points account")
	}
	return account, nil
}

// journalTx reloads the mutated account and appends the journal entry with
// BalanceAfter taken from the same transaction, which is the ledger self-check.
func (s *service) journalTx(ctx context.Context, repo Repository, input EntryInput, txType enums.PointsTransactionType) (*models.PointsTransaction, error) {
	account, err := repo.Find(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload points account")
	}

	txn := &models.PointsTransaction{
		ID:           uuid.New(),
		UserID:       input.UserID,
		Points:       input.Points,
		Type:         txType,
		Source:       input.Source,
		SourceID:     input.SourceID,
		Description:  input.Description,
		BalanceAfter: account.CurrentBalance,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append journal entry")
	}
	return txn, nil
}
