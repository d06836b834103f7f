package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReservationUpdateTypeStatus  = "status_update"
	ReservationUpdateTypeDetails = "details_update"
	ReservationUpdateTypePayment = "payment_update"
)

// ReservationHistory is the append-only audit trail of a reservation. Rows
// are never updated or deleted, so there is no UpdatedAt or soft delete.
type ReservationHistory struct {
	ID            string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ReservationID string `gorm:"size:36;not null;index"`
	UpdateType    string `gorm:"size:50;not null"`
	OldValue      string `gorm:"type:text"`
	NewValue      string `gorm:"type:text"`
	ActorID       string `gorm:"size:36"`
	CreatedAt     time.Time
}

func (h *ReservationHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return
}
