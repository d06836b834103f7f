package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	Name        string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:255;not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	CategoryID  string `gorm:"size:36;index"`
	Category    Category
	Image       string `gorm:"size:255"`

	// Variants are exclusively owned; deleting a product removes them.
	Variants []ProductVariant `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
