package migrations

import (
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{}, &models.ProductVariant{}, &models.Reservation{}, &models.ReservationDetail{}, &models.ReservationHistory{}, &models.SupplyHistory{})
}
