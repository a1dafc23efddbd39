package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
)

// Repository manages persistence for inventory items. Stock mutations are
// guarded single-statement updates: the WHERE clause enforces
// reserved_qty <= available_qty and the non-negative floors, so zero rows
// affected means the mutation would have violated an invariant.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	Upsert(ctx context.Context, item *models.InventoryItem) error
	ApplyReserve(ctx context.Context, productID uuid.UUID, qty int) (int64, error)
	ApplyRelease(ctx context.Context, productID uuid.UUID, qty int) (int64, error)
	ApplyConsume(ctx context.Context, productID uuid.UUID, qty int) (int64, error)
	ApplyAdd(ctx context.Context, productID uuid.UUID, qty int) (int64, error)
	ApplyAdjust(ctx context.Context, productID uuid.UUID, delta int) (int64, error)
	ListBelowReorderLevel(ctx context.Context) ([]models.InventoryItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Upsert(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) ApplyReserve(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_qty = reserved_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND available_qty - reserved_qty >= ?
	`, qty, productID, qty)
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyRelease(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND reserved_qty >= ?
	`, qty, productID, qty)
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyConsume(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty - ?,
			reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND reserved_qty >= ? AND available_qty >= ?
	`, qty, qty, productID, qty, qty)
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyAdd(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?
	`, qty, productID)
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyAdjust(ctx context.Context, productID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?
			AND available_qty + ? >= 0
			AND available_qty + ? >= reserved_qty
	`, delta, productID, delta, delta)
	return res.RowsAffected, res.Error
}

func (r *repository) ListBelowReorderLevel(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("available_qty - reserved_qty <= reorder_level").
		Order("product_id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
