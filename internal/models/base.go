package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the UUID key and timestamps shared by soft-deletable tables.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty" swaggertype:"string"`
}

// BeforeCreate assigns a UUIDv7 so keys sort by creation time.
func (b *Base) BeforeCreate(*gorm.DB) error {
	return assignID(&b.ID)
}

func assignID(id *string) error {
	if *id != "" {
		return nil
	}
	v7, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v7.String()
	return nil
}
