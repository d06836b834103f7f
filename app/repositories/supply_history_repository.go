package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"gorm.io/gorm"
)

type SupplyHistoryRepository interface {
	Create(ctx context.Context, history *models.SupplyHistory) error
	GetByID(ctx context.Context, id string) (*models.SupplyHistory, error)
	GetByVariantID(ctx context.Context, variantID string) ([]models.SupplyHistory, error)
	IncrementPulledOut(ctx context.Context, id string, qty int) (bool, error)
	ResetPulledOut(ctx context.Context, id string, expected int) (bool, error)
}

type gormSupplyHistoryRepository struct {
	db *gorm.DB
}

func NewSupplyHistoryRepository(db *gorm.DB) SupplyHistoryRepository {
	return &gormSupplyHistoryRepository{db: db}
}

func (r *gormSupplyHistoryRepository) Create(ctx context.Context, history *models.SupplyHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *gormSupplyHistoryRepository) GetByID(ctx context.Context, id string) (*models.SupplyHistory, error) {
	var history models.SupplyHistory
	err := r.db.WithContext(ctx).First(&history, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

func (r *gormSupplyHistoryRepository) GetByVariantID(ctx context.Context, variantID string) ([]models.SupplyHistory, error) {
	var histories []models.SupplyHistory
	err := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order("supplied_at DESC").
		Find(&histories).Error
	if err != nil {
		return nil, err
	}
	return histories, nil
}

// IncrementPulledOut adds qty to pulled_out_quantity only while the row still
// has that much pullable stock. Returns false when the guard fails.
func (r *gormSupplyHistoryRepository) IncrementPulledOut(ctx context.Context, id string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.SupplyHistory{}).
		Where("id = ? AND quantity - pulled_out_quantity >= ?", id, qty).
		Updates(map[string]interface{}{
			"pulled_out_quantity": gorm.Expr("pulled_out_quantity + ?", qty),
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ResetPulledOut zeroes pulled_out_quantity only if it still holds the value
// the caller read, so two concurrent redos cannot both succeed.
func (r *gormSupplyHistoryRepository) ResetPulledOut(ctx context.Context, id string, expected int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.SupplyHistory{}).
		Where("id = ? AND pulled_out_quantity = ?", id, expected).
		Updates(map[string]interface{}{
			"pulled_out_quantity": 0,
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
