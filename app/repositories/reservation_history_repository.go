package repositories

import (
	"context"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"gorm.io/gorm"
)

// ReservationHistoryRepository is append-only: there is deliberately no
// update or delete method.
type ReservationHistoryRepository interface {
	Append(ctx context.Context, entry *models.ReservationHistory) error
	GetByReservationID(ctx context.Context, reservationID string) ([]models.ReservationHistory, error)
}

type gormReservationHistoryRepository struct {
	db *gorm.DB
}

func NewReservationHistoryRepository(db *gorm.DB) ReservationHistoryRepository {
	return &gormReservationHistoryRepository{db: db}
}

func (r *gormReservationHistoryRepository) Append(ctx context.Context, entry *models.ReservationHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormReservationHistoryRepository) GetByReservationID(ctx context.Context, reservationID string) ([]models.ReservationHistory, error) {
	var entries []models.ReservationHistory
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
