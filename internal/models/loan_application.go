package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus is the review state of a submitted application.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusInReview  ApplicationStatus = "in_review"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusSubmitted: {ApplicationStatusInReview},
	ApplicationStatusInReview:  {ApplicationStatusApproved, ApplicationStatusRejected},
}

// CanTransitionTo reports whether the pipeline may move s to next.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LoanApplication is a submitted wizard draft with its computed loan terms.
type LoanApplication struct {
	Base
	UserID         string                `gorm:"type:uuid;not null;index" json:"user_id"`
	PropertyID     int64                 `gorm:"not null;index" json:"property_id"`
	RateID         int                   `gorm:"not null" json:"rate_id"`
	Status         ApplicationStatus     `gorm:"size:20;not null;default:submitted;index" json:"status"`
	StatusNote     string                `json:"status_note,omitempty"`
	PropertyPrice  decimal.Decimal       `gorm:"type:numeric(18,2);not null" json:"property_price" swaggertype:"string"`
	DownPayment    decimal.Decimal       `gorm:"type:numeric(18,2);not null" json:"down_payment" swaggertype:"string"`
	TenorYears     int                   `gorm:"not null" json:"tenor_years"`
	MonthlyPayment decimal.Decimal       `gorm:"type:numeric(18,2);not null" json:"monthly_payment" swaggertype:"string"`
	FormData       string                `gorm:"type:text" json:"form_data"`
	SubmittedAt    time.Time             `gorm:"not null" json:"submitted_at"`
	Property       Property              `gorm:"foreignKey:PropertyID" json:"property"`
	Documents      []ApplicationDocument `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
}

// ApplicationDocument records one stored attachment of an application.
type ApplicationDocument struct {
	Base
	ApplicationID string `gorm:"type:uuid;not null;index" json:"application_id"`
	Field         string `gorm:"size:40;not null" json:"field"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	StoragePath   string `json:"-"`
}
