package models

import (
	"time"

	"gorm.io/gorm"
)

// Property status constants
const (
	PropertyStatusAvailable = "AVAILABLE"
	PropertyStatusBooked    = "BOOKED"
	PropertyStatusInactive  = "INACTIVE"
)

// Property is a listed real-estate unit
type Property struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `json:"description"`
	City         string         `gorm:"index" json:"city"`
	PropertyType string         `gorm:"type:varchar(30);index" json:"property_type"`
	Status       string         `gorm:"type:varchar(20);default:'AVAILABLE'" json:"status"`
	Price        float64        `gorm:"type:decimal(15,2)" json:"price"`
	Bedrooms     int            `json:"bedrooms"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
