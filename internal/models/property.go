package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is a listing that can be financed through the wizard.
type Property struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string          `gorm:"not null" json:"title"`
	Developer    string          `json:"developer"`
	Cluster      string          `json:"cluster,omitempty"`
	Location     string          `json:"location"`
	Price        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"price" swaggertype:"string"`
	LandArea     int             `json:"land_area,omitempty"`
	BuildingArea int             `json:"building_area,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
