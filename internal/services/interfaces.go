package services

import (
	"context"

	"kpr/internal/loan"
	"kpr/internal/models"
	"kpr/internal/pagination"
	"kpr/internal/rates"
	"kpr/internal/wizard"

	"github.com/shopspring/decimal"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(fullName, phoneNumber, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	MarkEmailVerified(userID string) error
	UpdatePassword(userID, newPassword string) error
	UpdateProfile(userID, fullName, phoneNumber string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// OTPPurpose scopes a one-time code to a single flow.
type OTPPurpose string

const (
	OTPPurposeRegister      OTPPurpose = "register"
	OTPPurposeResetPassword OTPPurpose = "reset_password"
)

// OTPServicer issues and verifies emailed one-time codes.
type OTPServicer interface {
	Issue(ctx context.Context, purpose OTPPurpose, email string) error
	Verify(ctx context.Context, purpose OTPPurpose, email, code string) error
}

// SimulationRequest carries the simulator inputs.
type SimulationRequest struct {
	PropertyPrice decimal.Decimal
	DownPayment   decimal.Decimal
	TenorYears    int
	// RateID zero means no rate has been chosen yet.
	RateID int
}

// SimulationResult is the simulator output for one rate.
type SimulationResult struct {
	Rate             *loan.RateSpec          `json:"rate"`
	Principal        decimal.Decimal         `json:"principal"`
	Amortization     loan.AmortizationResult `json:"amortization"`
	Display          string                  `json:"monthly_payment_display"`
	DownPaymentCheck loan.DownPaymentCheck   `json:"down_payment_check"`
}

// CalculatorServicer exposes the loan engine over the rate catalog.
type CalculatorServicer interface {
	ListRates() []loan.RateSpec
	GetRate(id int) (rates.Entry, error)
	Simulate(req SimulationRequest) (*SimulationResult, error)
	Affordability(in loan.AffordabilityInput) (*loan.AffordabilityResult, error)
	ExportSchedule(req SimulationRequest, format ExportFormat) ([]byte, error)
}

// ExportFormat selects the schedule document type.
type ExportFormat string

const (
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

// PropertyServicer reads the property catalog.
type PropertyServicer interface {
	GetProperty(id int64) (*models.Property, error)
	ListProperties(page pagination.PageRequest) (*pagination.PageResponse[models.Property], error)
}

// EnterResult reports the draft after entering the wizard for a property.
type EnterResult struct {
	Draft     *wizard.Draft `json:"draft"`
	Discarded bool          `json:"discarded"`
}

// WizardServicer drives the per-user application draft.
type WizardServicer interface {
	Enter(ctx context.Context, userID string, propertyID int64) (*EnterResult, error)
	Current(ctx context.Context, userID string) (*wizard.Draft, error)
	Next(ctx context.Context, userID string, stepData wizard.FormData) (*wizard.Draft, error)
	Prev(ctx context.Context, userID string) (*wizard.Draft, error)
	UpdateForm(ctx context.Context, userID string, data wizard.FormData) (*wizard.Draft, error)
	SetStep(ctx context.Context, userID string, step int) (*wizard.Draft, error)
	Reset(ctx context.Context, userID string) (*wizard.Draft, error)
	AttachDocument(ctx context.Context, userID string, a wizard.Attachment) error
	DetachDocument(ctx context.Context, userID, field string) error
	Documents(ctx context.Context, userID string) (*DocumentStatus, error)
}

// DocumentStatus lists uploaded and still-missing attachment fields.
type DocumentStatus struct {
	Required []string `json:"required"`
	Uploaded []string `json:"uploaded"`
	Missing  []string `json:"missing"`
}

// ApplicationServicer turns drafts into stored applications and tracks their review.
type ApplicationServicer interface {
	Submit(ctx context.Context, userID, ipAddress string) (*models.LoanApplication, error)
	ListApplications(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.LoanApplication], error)
	GetApplication(userID, applicationID string) (*models.LoanApplication, error)
	UpdateStatus(applicationID string, status models.ApplicationStatus, note string) (*models.LoanApplication, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
