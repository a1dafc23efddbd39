package budgets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SetBudgetInput carries a monthly budget definition for one admin.
type SetBudgetInput struct {
	AdminUserID      uuid.UUID
	Month            string
	BudgetLimit      int
	IsHardLimit      bool
	WarningThreshold int
}

// ValidationResult is the verdict for a proposed award against the admin's
// monthly budget. A hard limit breach flips IsAllowed; a soft limit breach or
// crossing the warning threshold only sets IsWarning.
type ValidationResult struct {
	IsAllowed       bool   `json:"is_allowed"`
	IsWarning       bool   `json:"is_warning"`
	RemainingBudget *int   `json:"remaining_budget,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Service guards per-admin monthly award budgets. Admins without a budget row
// for the month are unconstrained.
type Service interface {
	SetBudget(ctx context.Context, input SetBudgetInput) (*models.AdminBudget, error)
	GetBudget(ctx context.Context, adminID uuid.UUID, month string) (*models.AdminBudget, error)
	ListByMonth(ctx context.Context, month string) ([]models.AdminBudget, error)
	ValidatePointsAward(ctx context.Context, adminID uuid.UUID, points int) (*ValidationResult, error)
	RecordPointsAwardedTx(ctx context.Context, tx *gorm.DB, adminID uuid.UUID, points int) error
}

type service struct {
	repo  Repository
	tx    txRunner
	nowFn func() time.Time
}

// NewService wires a budget service with the provided repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("budgets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, nowFn: time.Now}, nil
}

const monthLayout = "2006-01"

// CurrentMonth returns the budget month key for the current UTC time.
func (s *service) currentMonth() string {
	return s.nowFn().UTC().Format(monthLayout)
}

func (s *service) SetBudget(ctx context.Context, input SetBudgetInput) (*models.AdminBudget, error) {
	if input.AdminUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin user id required")
	}
	if input.Month == "" {
		input.Month = s.currentMonth()
	}
	if _, err := time.Parse(monthLayout, input.Month); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month must be formatted YYYY-MM")
	}
	if input.BudgetLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget limit must be positive")
	}
	if input.WarningThreshold < 0 || input.WarningThreshold > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warning threshold must be between 0 and 100")
	}

	var out *models.AdminBudget
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.Find(ctx, input.AdminUserID, input.Month)
		if err == nil {
			if err := repo.UpdateLimits(ctx, existing.ID, input.BudgetLimit, input.IsHardLimit, input.WarningThreshold); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update budget")
			}
			existing.BudgetLimit = input.BudgetLimit
			existing.IsHardLimit = input.IsHardLimit
			existing.WarningThreshold = input.WarningThreshold
			out = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget")
		}

		budget := &models.AdminBudget{
			ID:               uuid.New(),
			AdminUserID:      input.AdminUserID,
			Month:            input.Month,
			BudgetLimit:      input.BudgetLimit,
			IsHardLimit:      input.IsHardLimit,
			WarningThreshold: input.WarningThreshold,
		}
		if err := repo.Create(ctx, budget); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create budget")
		}
		out = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) GetBudget(ctx context.Context, adminID uuid.UUID, month string) (*models.AdminBudget, error) {
	if month == "" {
		month = s.currentMonth()
	}
	budget, err := s.repo.Find(ctx, adminID, month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "budget not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget")
	}
	return budget, nil
}

func (s *service) ListByMonth(ctx context.Context, month string) ([]models.AdminBudget, error) {
	if month == "" {
		month = s.currentMonth()
	}
	rows, err := s.repo.ListByMonth(ctx, month)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list budgets")
	}
	return rows, nil
}

// ValidatePointsAward reports whether the admin may award the given points
// this month. It never mutates; callers must still expect the guarded
// RecordPointsAwardedTx to fail under concurrency.
func (s *service) ValidatePointsAward(ctx context.Context, adminID uuid.UUID, points int) (*ValidationResult, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin user id required")
	}
	if points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}

	budget, err := s.repo.Find(ctx, adminID, s.currentMonth())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{IsAllowed: true}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget")
	}

	projected := budget.PointsAwarded + points
	remaining := budget.BudgetLimit - projected
	result := &ValidationResult{IsAllowed: true, RemainingBudget: &remaining}

	if projected > budget.BudgetLimit {
		if budget.IsHardLimit {
			result.IsAllowed = false
			result.Message = fmt.Sprintf("award of %d points exceeds monthly budget of %d", points, budget.BudgetLimit)
			return result, nil
		}
		result.IsWarning = true
		result.Message = fmt.Sprintf("award of %d points exceeds soft monthly budget of %d", points, budget.BudgetLimit)
		return result, nil
	}

	// A zero threshold disables threshold warnings.
	if budget.WarningThreshold > 0 && projected*100 >= budget.BudgetLimit*budget.WarningThreshold {
		result.IsWarning = true
		result.Message = fmt.Sprintf("monthly budget %d%% consumed", projected*100/budget.BudgetLimit)
	}
	return result, nil
}

// RecordPointsAwardedTx charges the award against the admin's monthly budget
// inside tx. Admins without a budget row are unconstrained and record nothing.
func (s *service) RecordPointsAwardedTx(ctx context.Context, tx *gorm.DB, adminID uuid.UUID, points int) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin user id required")
	}
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	repo := s.repo.WithTx(tx)
	month := s.currentMonth()

	budget, err := repo.Find(ctx, adminID, month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget")
	}

	affected, err := repo.ApplyAward(ctx, adminID, month, points, budget.IsHardLimit)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record award against budget")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeBudgetExceeded, "monthly award budget exceeded").
			WithDetails(map[string]any{
				"budget_limit": budget.BudgetLimit,
				"requested":    points,
			})
	}
	return nil
}
