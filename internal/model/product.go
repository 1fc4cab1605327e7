package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry owned by the user who created it.
type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null;index"`
	Description string          `json:"description" gorm:"size:1024"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Category    string          `json:"category" gorm:"size:255;index"`
	CreatedBy   uuid.UUID       `json:"created_by" gorm:"type:char(36);index;not null"`
	Creator     *User           `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
