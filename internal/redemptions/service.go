package redemptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
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

type catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type ledger interface {
	DebitTx(ctx context.Context, tx *gorm.DB, input accounts.EntryInput) (*models.PointsTransaction, error)
	RefundTx(ctx context.Context, tx *gorm.DB, input accounts.EntryInput) (*models.PointsTransaction, error)
}

type stock interface {
	ReserveTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	ReleaseTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	ConsumeTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// RequestInput opens a redemption for qty units of a product.
type RequestInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// CancelInput identifies the redemption and the caller asking to cancel it.
// Only the owner or an admin may cancel.
type CancelInput struct {
	RedemptionID uuid.UUID
	ActorUserID  uuid.UUID
	ActorRole    enums.SystemRole
	Reason       string
}

// Service runs the redemption workflow.
//
// Requesting a redemption reserves stock and debits points in one
// transaction. Rejection and cancellation undo both; delivery consumes the
// reservation for good. Lifecycle: pending -> approved -> delivered, with
// rejection from pending and cancellation from pending or approved.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Redemption, error)
	Get(ctx context.Context, id, actorID uuid.UUID, role enums.SystemRole) (*models.Redemption, error)
	Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Redemption, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Redemption, error)
	Deliver(ctx context.Context, id, adminID uuid.UUID, notes *string) (*models.Redemption, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Redemption, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Redemption, string, error)
	ListByStatus(ctx context.Context, status enums.RedemptionStatus, params pagination.Params) ([]models.Redemption, string, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	products catalog
	ledger   ledger
	stock    stock
	metrics  *metrics.WorkflowMetrics
	log      *logger.Logger
}

// NewService wires the redemption workflow with its collaborators.
func NewService(repo Repository, tx txRunner, products catalog, ledger ledger, stock stock, workflowMetrics *metrics.WorkflowMetrics, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("redemptions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("points ledger required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		ledger:   ledger,
		stock:    stock,
		metrics:  workflowMetrics,
		log:      log,
	}, nil
}

// Request reserves stock, debits the user's points, and opens the pending
// redemption, all in one transaction. Any failing step rolls the rest back.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.Redemption, error) {
	if input.UserID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, s.failRequest(pkgerrors.New(pkgerrors.CodeValidation, "user id and product id required"))
	}
	if input.Quantity <= 0 {
		return nil, s.failRequest(pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"))
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, s.failRequest(err)
	}
	if !product.IsActive {
		return nil, s.failRequest(pkgerrors.New(pkgerrors.CodeValidation, "product is not redeemable"))
	}
	pointsSpent := product.PointsCost * input.Quantity

	redemption := &models.Redemption{
		ID:          uuid.New(),
		UserID:      input.UserID,
		ProductID:   input.ProductID,
		PointsSpent: pointsSpent,
		Quantity:    input.Quantity,
		Status:      enums.RedemptionStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.ReserveTx(ctx, tx, input.ProductID, input.Quantity); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, redemption); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create redemption")
		}
		redemptionID := redemption.ID
		_, err := s.ledger.DebitTx(ctx, tx, accounts.EntryInput{
			UserID:      input.UserID,
			Points:      pointsSpent,
			Source:      enums.PointsSourceRedemption,
			SourceID:    &redemptionID,
			Description: fmt.Sprintf("redemption of %q x%d", product.Name, input.Quantity),
		})
		return err
	})
	if err != nil {
		return nil, s.failRequest(err)
	}

	s.metrics.ObserveRedemption("request", "success")
	s.metrics.AddPoints("debit", pointsSpent)
	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"redemption_id": redemption.ID.String(),
		"user_id":       input.UserID.String(),
		"points":        pointsSpent,
	}), "redemption requested")
	return redemption, nil
}

func (s *service) failRequest(err error) error {
	s.metrics.ObserveRedemption("request", "failure")
	return err
}

// Get returns the redemption when the caller owns it or is an admin.
func (s *service) Get(ctx context.Context, id, actorID uuid.UUID, role enums.SystemRole) (*models.Redemption, error) {
	redemption, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != enums.SystemRoleAdmin && redemption.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "redemption belongs to another user")
	}
	return redemption, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	redemption, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "redemption not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load redemption")
	}
	return redemption, nil
}

// Approve moves a pending redemption to approved. Points and stock stay
// committed as they were at request time.
func (s *service) Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Redemption, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}
	now := time.Now().UTC()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ApplyTransition(ctx, id, enums.RedemptionStatusPending, enums.RedemptionStatusApproved, map[string]any{
			"approved_at": now,
			"approved_by": adminID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve redemption")
		}
		if affected == 0 {
			return s.transitionConflict(ctx, repo, id, enums.RedemptionStatusApproved)
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveRedemption("approve", "failure")
		return nil, err
	}
	s.metrics.ObserveRedemption("approve", "success")
	return s.load(ctx, id)
}

// Reject closes a pending redemption and undoes its side effects: the stock
// reservation is released and the points come back, as if the request never
// happened.
func (s *service) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Redemption, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	err := s.compensate(ctx, id, enums.RedemptionStatusRejected, map[string]any{
		"processed_at":     time.Now().UTC(),
		"rejection_reason": reason,
	}, []enums.RedemptionStatus{enums.RedemptionStatusPending})
	if err != nil {
		s.metrics.ObserveRedemption("reject", "failure")
		return nil, err
	}
	s.metrics.ObserveRedemption("reject", "success")
	return s.load(ctx, id)
}

// Cancel closes a pending or approved redemption with the same compensation
// as rejection. Only the redemption's owner or an admin may cancel.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Redemption, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor user id required")
	}

	redemption, err := s.load(ctx, input.RedemptionID)
	if err != nil {
		s.metrics.ObserveRedemption("cancel", "failure")
		return nil, err
	}
	if input.ActorRole != enums.SystemRoleAdmin && redemption.UserID != input.ActorUserID {
		s.metrics.ObserveRedemption("cancel", "failure")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "redemption belongs to another user")
	}

	updates := map[string]any{"processed_at": time.Now().UTC()}
	if input.Reason != "" {
		updates["cancellation_reason"] = input.Reason
	}
	err = s.compensate(ctx, input.RedemptionID, enums.RedemptionStatusCancelled, updates,
		[]enums.RedemptionStatus{enums.RedemptionStatusPending, enums.RedemptionStatusApproved})
	if err != nil {
		s.metrics.ObserveRedemption("cancel", "failure")
		return nil, err
	}
	s.metrics.ObserveRedemption("cancel", "success")
	return s.load(ctx, input.RedemptionID)
}

// Deliver hands the goods over: the reservation is consumed, removing the
// units from stock for good.
func (s *service) Deliver(ctx context.Context, id, adminID uuid.UUID, notes *string) (*models.Redemption, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		redemption, err := s.requireTx(ctx, repo, id)
		if err != nil {
			return err
		}
		affected, err := repo.ApplyTransition(ctx, id, enums.RedemptionStatusApproved, enums.RedemptionStatusDelivered, map[string]any{
			"processed_at":   time.Now().UTC(),
			"delivery_notes": notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver redemption")
		}
		if affected == 0 {
			return s.transitionConflict(ctx, repo, id, enums.RedemptionStatusDelivered)
		}
		return s.stock.ConsumeTx(ctx, tx, redemption.ProductID, redemption.Quantity)
	})
	if err != nil {
		s.metrics.ObserveRedemption("deliver", "failure")
		return nil, err
	}
	s.metrics.ObserveRedemption("deliver", "success")
	return s.load(ctx, id)
}

// compensate transitions the redemption into a terminal state and reverses
// the request's effects in the same transaction.
func (s *service) compensate(ctx context.Context, id uuid.UUID, to enums.RedemptionStatus, updates map[string]any, from []enums.RedemptionStatus) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		redemption, err := s.requireTx(ctx, repo, id)
		if err != nil {
			return err
		}

		transitioned := false
		for _, fromStatus := range from {
			affected, err := repo.ApplyTransition(ctx, id, fromStatus, to, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition redemption")
			}
			if affected > 0 {
				transitioned = true
				break
			}
		}
		if !transitioned {
			return s.transitionConflict(ctx, repo, id, to)
		}

		redemptionID := redemption.ID
		_, err = s.ledger.RefundTx(ctx, tx, accounts.EntryInput{
			UserID:      redemption.UserID,
			Points:      redemption.PointsSpent,
			Source:      enums.PointsSourceRedemption,
			SourceID:    &redemptionID,
			Description: fmt.Sprintf("refund for %s redemption", to),
		})
		if err != nil {
			return err
		}
		if err := s.stock.ReleaseTx(ctx, tx, redemption.ProductID, redemption.Quantity); err != nil {
			return err
		}
		s.metrics.AddPoints("credit", redemption.PointsSpent)
		return nil
	})
}

func (s *service) requireTx(ctx context.Context, repo Repository, id uuid.UUID) (*models.Redemption, error) {
	redemption, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "redemption not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load redemption")
	}
	return redemption, nil
}

func (s *service) transitionConflict(ctx context.Context, repo Repository, id uuid.UUID, to enums.RedemptionStatus) error {
	redemption, err := s.requireTx(ctx, repo, id)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move redemption from %s to %s", redemption.Status, to)).
		WithDetails(map[string]any{"current": redemption.Status.String(), "target": to.String()})
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Redemption, string, error) {
	return s.list(ctx, params, func(limit int, cursor *pagination.Cursor) ([]models.Redemption, error) {
		return s.repo.ListByUser(ctx, userID, limit, cursor)
	})
}

func (s *service) ListByStatus(ctx context.Context, status enums.RedemptionStatus, params pagination.Params) ([]models.Redemption, string, error) {
	if !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid redemption status %q", status))
	}
	return s.list(ctx, params, func(limit int, cursor *pagination.Cursor) ([]models.Redemption, error) {
		return s.repo.ListByStatus(ctx, status, limit, cursor)
	})
}

func (s *service) list(ctx context.Context, params pagination.Params, fetch func(limit int, cursor *pagination.Cursor) ([]models.Redemption, error)) ([]models.Redemption, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := fetch(pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redemptions")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
