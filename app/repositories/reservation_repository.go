package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	GetByIDWithDetails(ctx context.Context, id string) (*models.Reservation, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Reservation, error)
	GetPaginated(ctx context.Context, limit, offset int) ([]models.Reservation, int64, error)
	UpdateStatus(ctx context.Context, id string, status int) error
	UpdateStatusAndAmountPaid(ctx context.Context, id string, status int, amountPaid decimal.Decimal) error
	ReplaceDetails(ctx context.Context, reservationID string, details []models.ReservationDetail, remarks string, totalPrice decimal.Decimal) error
}

type gormReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &gormReservationRepository{db: db}
}

func (r *gormReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *gormReservationRepository) GetByIDWithDetails(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("reservation_details.created_at ASC")
		}).
		Preload("Details.ProductVariant").
		First(&reservation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *gormReservationRepository) GetByUserID(ctx context.Context, userID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Details.ProductVariant").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *gormReservationRepository) GetPaginated(ctx context.Context, limit, offset int) ([]models.Reservation, int64, error) {
	var reservations []models.Reservation
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Reservation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Details.ProductVariant").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reservations).Error

	return reservations, total, err
}

func (r *gormReservationRepository) UpdateStatus(ctx context.Context, id string, status int) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}

func (r *gormReservationRepository) UpdateStatusAndAmountPaid(ctx context.Context, id string, status int, amountPaid decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"amount_paid": amountPaid,
		"updated_at":  time.Now(),
	}).Error
}

// ReplaceDetails swaps the full detail set of a reservation in one
// transaction so a failed edit never leaves a half-written line list.
func (r *gormReservationRepository) ReplaceDetails(ctx context.Context, reservationID string, details []models.ReservationDetail, remarks string, totalPrice decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reservation_id = ?", reservationID).Delete(&models.ReservationDetail{}).Error; err != nil {
			return err
		}
		for i := range details {
			details[i].ReservationID = reservationID
		}
		if len(details) > 0 {
			if err := tx.Create(&details).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Reservation{}).Where("id = ?", reservationID).Updates(map[string]interface{}{
			"remarks":     remarks,
			"total_price": totalPrice,
			"updated_at":  time.Now(),
		}).Error
	})
}
