package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	UnitPcs  = "pcs"
	UnitKg   = "kg"
	UnitBox  = "box"
	UnitSet  = "set"
	UnitMtr  = "mtr"
	UnitPack = "pack"
)

const DefaultLowStockThreshold = 15

// ProductVariant is one sellable size/unit/color combination of a product.
// Quantity is the variant's own physical stock; when AutoConvert is set the
// sellable quantity is additionally derived from ConversionSource (e.g. a
// "pcs" variant topped up by breaking "box" stock at ConversionQuantity pcs
// per box). Version is the optimistic-lock counter for quantity updates.
type ProductVariant struct {
	ID            string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ProductID     string `gorm:"size:36;not null;index"`
	Unit          string `gorm:"size:20;not null"`
	Size          string `gorm:"size:50"`
	Dimension     string `gorm:"size:50"`
	DimensionType string `gorm:"size:50"`
	Color         string `gorm:"size:50"`

	Price         decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	SupplierPrice decimal.Decimal `gorm:"type:decimal(16,2);default:0.00"`

	Quantity          int `gorm:"not null;default:0"`
	LowStockThreshold int `gorm:"not null;default:15"`

	AutoConvert        bool    `gorm:"not null;default:false"`
	ConversionSourceID *string `gorm:"size:36;index"`
	ConversionQuantity int     `gorm:"not null;default:1"`

	Version int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.LowStockThreshold == 0 {
		v.LowStockThreshold = DefaultLowStockThreshold
	}
	return
}

// IsLowStock is informational only; no invariant depends on it.
func (v *ProductVariant) IsLowStock() bool {
	return v.Quantity <= v.LowStockThreshold
}

// Label is a short human-readable description used in audit entries and
// notification bodies.
func (v *ProductVariant) Label() string {
	if v.Size != "" {
		return v.Size + " " + v.Unit
	}
	return v.Unit
}
