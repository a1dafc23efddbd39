package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service tracks per-product stock. A reservation holds sellable stock
// without removing it from the shelf; consumption (at delivery) removes it
// for good. The *Tx variants run against a caller-supplied transaction so the
// redemption workflow can fold stock movement into its own atomic unit.
type Service interface {
	Get(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	Sellable(ctx context.Context, productID uuid.UUID) (int, error)
	ReserveTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	ReleaseTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	ConsumeTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	AddStock(ctx context.Context, productID uuid.UUID, qty int) error
	Adjust(ctx context.Context, productID uuid.UUID, delta int) error
	ListBelowReorderLevel(ctx context.Context) ([]models.InventoryItem, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires an inventory service with the provided repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.Find(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

func (s *service) Sellable(ctx context.Context, productID uuid.UUID) (int, error) {
	item, err := s.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	return item.AvailableQty - item.ReservedQty, nil
}

func (s *service) ReserveTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyReserve(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if affected == 0 {
		if err := s.requireItemTx(ctx, repo, productID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient sellable stock").
			WithDetails(map[string]any{"requested": qty})
	}
	return nil
}

func (s *service) ReleaseTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyRelease(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservation")
	}
	if affected == 0 {
		if err := s.requireItemTx(ctx, repo, productID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "release exceeds reserved quantity")
	}
	return nil
}

func (s *service) ConsumeTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyConsume(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume stock")
	}
	if affected == 0 {
		if err := s.requireItemTx(ctx, repo, productID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "consume exceeds reserved quantity")
	}
	return nil
}

func (s *service) AddStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := validateQty(qty); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ApplyAdd(ctx, productID, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add stock")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil
	})
}

func (s *service) Adjust(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ApplyAdjust(ctx, productID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if affected == 0 {
			if err := s.requireItemTx(ctx, repo, productID); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "adjustment would break stock invariants").
				WithDetails(map[string]any{"delta": delta})
		}
		return nil
	})
}

func (s *service) ListBelowReorderLevel(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.ListBelowReorderLevel(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return items, nil
}

// requireItemTx distinguishes a missing row from a guard failure.
func (s *service) requireItemTx(ctx context.Context, repo Repository, productID uuid.UUID) error {
	if _, err := repo.Find(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return nil
}

func validateQty(qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
