package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReservationDetail is one line of a reservation. Price, Size and Unit are
// snapshots taken when the line is written; later edits to the variant do not
// change them.
type ReservationDetail struct {
	ID               string         `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ReservationID    string         `gorm:"size:36;not null;index"`
	ProductVariantID string         `gorm:"size:36;not null;index"`
	ProductVariant   ProductVariant `gorm:"foreignKey:ProductVariantID"`

	Quantity int             `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Size     string          `gorm:"size:50"`
	Unit     string          `gorm:"size:20"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *ReservationDetail) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return
}
