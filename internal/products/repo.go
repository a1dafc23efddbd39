package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db/models"
)

// Repository manages persistence for products and their pricing history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdatePointsCost(ctx context.Context, id uuid.UUID, pointsCost int) error
	CreateCostHistory(ctx context.Context, entry *models.PointsCostHistory) error
	ListCostHistory(ctx context.Context, productID uuid.UUID) ([]models.PointsCostHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) UpdatePointsCost(ctx context.Context, id uuid.UUID, pointsCost int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("points_cost", pointsCost).Error
}

func (r *repository) CreateCostHistory(ctx context.Context, entry *models.PointsCostHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListCostHistory(ctx context.Context, productID uuid.UUID) ([]models.PointsCostHistory, error) {
	var rows []models.PointsCostHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("effective_from DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
