package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SupplyHistory records one stock-in event for a variant. PulledOutQuantity
// never exceeds Quantity; pulling out decrements the live variant quantity by
// the same amount.
type SupplyHistory struct {
	ID               string         `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ProductVariantID string         `gorm:"size:36;not null;index"`
	ProductVariant   ProductVariant `gorm:"foreignKey:ProductVariantID"`

	Quantity          int             `gorm:"not null"`
	PulledOutQuantity int             `gorm:"not null;default:0"`
	SupplierPrice     decimal.Decimal `gorm:"type:decimal(16,2);default:0.00"`
	SuppliedAt        time.Time       `gorm:"not null"`
	Notes             string          `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (h *SupplyHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return
}

// Pullable is what remains removable from this specific stock-in row.
func (h *SupplyHistory) Pullable() int {
	return h.Quantity - h.PulledOutQuantity
}
