package redemptions

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/inventory"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/enums"
	pkgerrors "github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/errors"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/metrics"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubCatalog) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type stubLedger struct {
	debits   []accounts.EntryInput
	refunds  []accounts.EntryInput
	debitErr error
}

func (s *stubLedger) DebitTx(ctx context.Context, tx *gorm.DB, input accounts.EntryInput) (*models.PointsTransaction, error) {
	if s.debitErr != nil {
		return nil, s.debitErr
	}
	s.debits = append(s.debits, input)
	return &models.PointsTransaction{ID: uuid.New(), UserID: input.UserID, Points: input.Points}, nil
}

func (s *stubLedger) RefundTx(ctx context.Context, tx *gorm.DB, input accounts.EntryInput) (*models.PointsTransaction, error) {
	s.refunds = append(s.refunds, input)
	return &models.PointsTransaction{ID: uuid.New(), UserID: input.UserID, Points: input.Points}, nil
}

func setupRedemptionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	redemptionsTable := `
CREATE TABLE IF NOT EXISTS redemptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  points_spent INTEGER NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL DEFAULT 'pending',
  requested_at DATETIME,
  approved_at DATETIME,
  approved_by TEXT,
  processed_at DATETIME,
  rejection_reason TEXT,
  cancellation_reason TEXT,
  delivery_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	itemsTable := `
CREATE TABLE IF NOT EXISTS inventory_items (
  product_id TEXT PRIMARY KEY,
  available_qty INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  reorder_level INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(redemptionsTable).Error)
	require.NoError(t, db.Exec(itemsTable).Error)
	return db
}

type redemptionsFixture struct {
	svc       Service
	db        *gorm.DB
	ledger    *stubLedger
	catalog   *stubCatalog
	inventory inventory.Service
}

func newRedemptionsFixture(t *testing.T) *redemptionsFixture {
	t.Helper()

	db := setupRedemptionsTestDB(t)
	runner := &gormTxRunner{db: db}
	stock, err := inventory.NewService(inventory.NewRepository(db), runner)
	require.NoError(t, err)

	ledgerStub := &stubLedger{}
	catalogStub := &stubCatalog{products: map[uuid.UUID]*models.Product{}}
	log := logger.New(logger.Options{ServiceName: "redemptions-test", Output: io.Discard})

	svc, err := NewService(NewRepository(db), runner, catalogStub, ledgerStub, stock, metrics.NewWorkflowMetrics(nil), log)
	require.NoError(t, err)
	return &redemptionsFixture{svc: svc, db: db, ledger: ledgerStub, catalog: catalogStub, inventory: stock}
}

func (f *redemptionsFixture) addProduct(t *testing.T, cost, available int, active bool) uuid.UUID {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SKU:        uuid.NewString(),
		Name:       "Hoodie",
		PointsCost: cost,
		IsActive:   active,
	}
	f.catalog.products[product.ID] = product

	item := &models.InventoryItem{ProductID: product.ID, AvailableQty: available}
	require.NoError(t, f.db.Create(item).Error)
	return product.ID
}

func (f *redemptionsFixture) item(t *testing.T, productID uuid.UUID) *models.InventoryItem {
	t.Helper()

	item, err := f.inventory.Get(context.Background(), productID)
	require.NoError(t, err)
	return item
}

func TestServiceRequestReservesAndDebits(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 50, 10, true)
	userID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: userID, ProductID: productID, Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusPending, redemption.Status)
	assert.Equal(t, 100, redemption.PointsSpent)

	item := f.item(t, productID)
	assert.Equal(t, 2, item.ReservedQty)
	assert.Equal(t, 10, item.AvailableQty)

	require.Len(t, f.ledger.debits, 1)
	assert.Equal(t, 100, f.ledger.debits[0].Points)
	assert.Equal(t, enums.PointsSourceRedemption, f.ledger.debits[0].Source)
}

func TestServiceRequestInactiveProduct(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 50, 10, false)

	_, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceRequestOutOfStock(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 50, 1, true)

	_, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 2,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOutOfStock, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, f.db.Model(&models.Redemption{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, f.ledger.debits)
}

func TestServiceRequestInsufficientBalanceRollsBack(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 50, 10, true)
	f.ledger.debitErr = pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient points balance")

	_, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientBalance, pkgerrors.As(err).Code())

	item := f.item(t, productID)
	assert.Equal(t, 0, item.ReservedQty)

	var count int64
	require.NoError(t, f.db.Model(&models.Redemption{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestServiceApprove(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 50, 10, true)
	adminID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), redemption.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, adminID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = f.svc.Approve(context.Background(), redemption.ID, adminID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceRejectCompensates(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 50, 10, true)
	userID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: userID, ProductID: productID, Quantity: 2,
	})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), redemption.ID, uuid.New(), "stock damaged")
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "stock damaged", *rejected.RejectionReason)

	item := f.item(t, productID)
	assert.Equal(t, 0, item.ReservedQty)
	assert.Equal(t, 10, item.AvailableQty)

	require.Len(t, f.ledger.refunds, 1)
	assert.Equal(t, 100, f.ledger.refunds[0].Points)
	assert.Equal(t, userID, f.ledger.refunds[0].UserID)
}

func TestServiceRejectRequiresReason(t *testing.T) {
	f := newRedemptionsFixture(t)

	_, err := f.svc.Reject(context.Background(), uuid.New(), uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceCancelApprovedCompensates(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)
	userID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: userID, ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), redemption.ID, uuid.New())
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), CancelInput{
		RedemptionID: redemption.ID,
		ActorUserID:  userID,
		ActorRole:    enums.SystemRoleMember,
		Reason:       "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "changed my mind", *cancelled.CancellationReason)

	item := f.item(t, productID)
	assert.Equal(t, 0, item.ReservedQty)
	require.Len(t, f.ledger.refunds, 1)
}

func TestServiceCancelByOtherUserForbidden(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)
	ownerID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: ownerID, ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), CancelInput{
		RedemptionID: redemption.ID,
		ActorUserID:  uuid.New(),
		ActorRole:    enums.SystemRoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	current, err := f.svc.Get(context.Background(), redemption.ID, ownerID, enums.SystemRoleMember)
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusPending, current.Status)
	item := f.item(t, productID)
	assert.Equal(t, 1, item.ReservedQty)
	assert.Empty(t, f.ledger.refunds)
}

func TestServiceCancelByAdminAllowed(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), CancelInput{
		RedemptionID: redemption.ID,
		ActorUserID:  uuid.New(),
		ActorRole:    enums.SystemRoleAdmin,
		Reason:       "event cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusCancelled, cancelled.Status)
	require.Len(t, f.ledger.refunds, 1)
}

func TestServiceCancelDeliveredFails(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)
	userID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: userID, ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), redemption.ID, uuid.New())
	require.NoError(t, err)
	_, err = f.svc.Deliver(context.Background(), redemption.ID, uuid.New(), nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), CancelInput{
		RedemptionID: redemption.ID,
		ActorUserID:  userID,
		ActorRole:    enums.SystemRoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceGetScopedToOwner(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)
	ownerID := uuid.New()

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: ownerID, ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), redemption.ID, uuid.New(), enums.SystemRoleMember)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	got, err := f.svc.Get(context.Background(), redemption.ID, uuid.New(), enums.SystemRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, ownerID, got.UserID)
}

func TestServiceDeliverConsumesStock(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)
	notes := "left at front desk"

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 2,
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), redemption.ID, uuid.New())
	require.NoError(t, err)

	delivered, err := f.svc.Deliver(context.Background(), redemption.ID, uuid.New(), &notes)
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveryNotes)
	assert.Equal(t, notes, *delivered.DeliveryNotes)
	assert.NotNil(t, delivered.ProcessedAt)

	item := f.item(t, productID)
	assert.Equal(t, 3, item.AvailableQty)
	assert.Equal(t, 0, item.ReservedQty)
	assert.Empty(t, f.ledger.refunds)
}

func TestServiceDeliverRequiresApproval(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 30, 5, true)

	redemption, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.Deliver(context.Background(), redemption.ID, uuid.New(), nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceListByUser(t *testing.T) {
	f := newRedemptionsFixture(t)
	productID := f.addProduct(t, 10, 20, true)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Request(context.Background(), RequestInput{
			UserID: userID, ProductID: productID, Quantity: 1,
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Request(context.Background(), RequestInput{
		UserID: uuid.New(), ProductID: productID, Quantity: 1,
	})
	require.NoError(t, err)

	rows, _, err := f.svc.ListByUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestServiceListByStatusValidation(t *testing.T) {
	f := newRedemptionsFixture(t)

	_, _, err := f.svc.ListByStatus(context.Background(), "bogus", pagination.Params{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
