package products

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

// Service exposes the catalog surface the redemption workflow depends on.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CurrentPointsCost(ctx context.Context, id uuid.UUID) (int, error)
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
	SetPointsCost(ctx context.Context, id uuid.UUID, pointsCost int) error
	ListCostHistory(ctx context.Context, id uuid.UUID) ([]models.PointsCostHistory, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a product service with the provided repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) CurrentPointsCost(ctx context.Context, id uuid.UUID) (int, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return product.PointsCost, nil
}

func (s *service) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return product.IsActive, nil
}

// SetPointsCost updates the listed cost and appends a history row in one transaction.
func (s *service) SetPointsCost(ctx context.Context, id uuid.UUID, pointsCost int) error {
	if pointsCost <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points cost must be positive")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := repo.UpdatePointsCost(ctx, id, pointsCost); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update points cost")
		}
		entry := &models.PointsCostHistory{
			ID:            uuid.New(),
			ProductID:     id,
			PointsCost:    pointsCost,
			EffectiveFrom: time.Now().UTC(),
		}
		if err := repo.CreateCostHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cost history")
		}
		return nil
	})
}

func (s *service) ListCostHistory(ctx context.Context, id uuid.UUID) ([]models.PointsCostHistory, error) {
	rows, err := s.repo.ListCostHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cost history")
	}
	return rows, nil
}
