package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"gorm.io/gorm"
)

type VariantRepositoryImpl interface {
	Create(ctx context.Context, variant *models.ProductVariant) error
	Update(ctx context.Context, variant *models.ProductVariant) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.ProductVariant, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.ProductVariant, error)
	GetByProductID(ctx context.Context, productID string) ([]models.ProductVariant, error)
	UpdateQuantityCAS(ctx context.Context, id string, delta int, expectedVersion int) (bool, error)
}

type gormVariantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepositoryImpl {
	return &gormVariantRepository{db: db}
}

func (r *gormVariantRepository) Create(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *gormVariantRepository) Update(ctx context.Context, variant *models.ProductVariant) error {
	variant.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(variant).Error
}

func (r *gormVariantRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.ProductVariant{}, "id = ?", id).Error
}

func (r *gormVariantRepository) GetByID(ctx context.Context, id string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// GetByIDs loads all requested variants with one query so that a variant and
// its conversion source come from the same read snapshot.
func (r *gormVariantRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*models.ProductVariant, len(variants))
	for i := range variants {
		byID[variants[i].ID] = &variants[i]
	}
	return byID, nil
}

func (r *gormVariantRepository) GetByProductID(ctx context.Context, productID string) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at ASC").Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// UpdateQuantityCAS applies a quantity delta as a single compare-and-swap
// against the variant row. The WHERE clause checks both the optimistic
// version and that the resulting quantity stays non-negative; a false return
// with nil error means the swap lost (stale version or would go negative)
// and the caller should re-read and retry.
func (r *gormVariantRepository) UpdateQuantityCAS(ctx context.Context, id string, delta int, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("id = ? AND version = ? AND quantity + ? >= 0", id, expectedVersion, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
