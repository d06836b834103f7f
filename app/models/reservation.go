package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ReservationStatusPending   = 1
	ReservationStatusConfirmed = 2
	ReservationStatusCompleted = 3
	ReservationStatusCancelled = 4
	ReservationStatusFailed    = 5
)

var reservationStatusLabels = map[int]string{
	ReservationStatusPending:   "pending",
	ReservationStatusConfirmed: "confirmed",
	ReservationStatusCompleted: "completed",
	ReservationStatusCancelled: "cancelled",
	ReservationStatusFailed:    "failed",
}

func ReservationStatusLabel(status int) string {
	if label, ok := reservationStatusLabels[status]; ok {
		return label
	}
	return fmt.Sprintf("unknown(%d)", status)
}

func ParseReservationStatus(label string) (int, bool) {
	for status, l := range reservationStatusLabels {
		if l == label {
			return status, true
		}
	}
	return 0, false
}

// IsTerminalReservationStatus reports whether no further transition is
// defined out of the given status.
func IsTerminalReservationStatus(status int) bool {
	switch status {
	case ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusFailed:
		return true
	}
	return false
}

type Reservation struct {
	ID     string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	UserID string `gorm:"size:36;index"`
	User   User   `gorm:"foreignKey:UserID"`

	Status          int       `gorm:"default:1"`
	ReservationDate time.Time `gorm:"not null"`
	Remarks         string    `gorm:"type:text"`
	Notes           string    `gorm:"type:text"`

	TotalPrice decimal.Decimal `gorm:"type:decimal(16,2);"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(16,2);"`

	Details []ReservationDetail

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
