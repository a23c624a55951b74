package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog is an append-only record of a security-relevant account or
// application event. Rows are never updated or soft-deleted.
type AuditLog struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string    `gorm:"not null" json:"action"`
	ResourceType string    `gorm:"not null" json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	IPAddress    string    `json:"ip_address"`
	Changes      string    `json:"changes,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a time-ordered id.
func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	return assignID(&a.ID)
}
