package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "kpr/internal/errors"
	"kpr/internal/loan"
	"kpr/internal/logger"
	"kpr/internal/metrics"
	"kpr/internal/models"
	"kpr/internal/pagination"
	"kpr/internal/storage"
	"kpr/internal/wizard"
)

// Form keys read at submission.
const (
	KeyDownPayment          = "down_payment"
	KeyTenorYears           = "tenor_years"
	KeyRateID               = "rate_id"
	KeyAgreeDataTruth       = "agree_data_truth"
	KeyAgreeDocumentClarify = "agree_document_clarify"
)

// applicationService persists submitted drafts and their documents.
type applicationService struct {
	db         *gorm.DB
	controller *wizard.Controller
	properties PropertyServicer
	calculator CalculatorServicer
	documents  storage.DocumentStorage
	audit      AuditServicer
	now        func() time.Time
}

// NewApplicationService creates a new ApplicationServicer.
func NewApplicationService(
	db *gorm.DB,
	controller *wizard.Controller,
	properties PropertyServicer,
	calculator CalculatorServicer,
	documents storage.DocumentStorage,
	audit AuditServicer,
) ApplicationServicer {
	return &applicationService{
		db:         db,
		controller: controller,
		properties: properties,
		calculator: calculator,
		documents:  documents,
		audit:      audit,
		now:        time.Now,
	}
}

// Submit turns the user's bound draft into a LoanApplication. The draft is
// reset only when the application and all its documents were stored.
func (s *applicationService) Submit(ctx context.Context, userID, ipAddress string) (*models.LoanApplication, error) {
	var app *models.LoanApplication
	err := s.controller.Submit(ctx, userID, func(d *wizard.Draft, attachments *wizard.AttachmentSet) error {
		var err error
		app, err = s.buildApplication(userID, d, attachments)
		if err != nil {
			return err
		}
		return s.store(ctx, app, attachments)
	})
	if err != nil {
		if errors.Is(err, wizard.ErrNoSession) {
			return nil, apperrors.WithMessage(apperrors.ErrDraftSessionMismatch, "There is no application draft to submit")
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	metrics.ApplicationsSubmitted.Inc()
	s.audit.Log(userID, "SUBMIT_APPLICATION", "loan_application", app.ID, ipAddress, map[string]any{
		"property_id": app.PropertyID,
		"rate_id":     app.RateID,
		"documents":   len(app.Documents),
	})
	logger.Get().Infow("application submitted", "application_id", app.ID, "user_id", userID)
	return app, nil
}

func (s *applicationService) buildApplication(userID string, d *wizard.Draft, attachments *wizard.AttachmentSet) (*models.LoanApplication, error) {
	form := d.FormData
	if !formBool(form, KeyAgreeDataTruth) || !formBool(form, KeyAgreeDocumentClarify) {
		return nil, apperrors.ErrAgreementRequired
	}
	if missing := attachments.Missing(wizard.RequiredDocuments(form)); len(missing) > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrMissingDocuments, "Missing documents: "+strings.Join(missing, ", "))
	}

	property, err := s.properties.GetProperty(*d.PropertyID)
	if err != nil {
		return nil, err
	}

	downPayment, ok := formDecimal(form, KeyDownPayment)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrDraftIncomplete, "down_payment is required")
	}
	tenor, ok := formInt(form, KeyTenorYears)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrDraftIncomplete, "tenor_years is required")
	}
	rateID, ok := formInt(form, KeyRateID)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrDraftIncomplete, "rate_id is required")
	}
	entry, err := s.calculator.GetRate(rateID)
	if err != nil {
		return nil, err
	}

	result := loan.ComputeMonthlyPayment(loan.Parameters{
		PropertyPrice: property.Price,
		DownPayment:   downPayment,
		TenorYears:    tenor,
		SelectedRate:  installmentRate(entry.Rate),
	})
	if !result.IsValidTenor {
		return nil, apperrors.WithMessage(apperrors.ErrDraftIncomplete,
			fmt.Sprintf("tenor must be at least %d years for this rate", entry.Rate.MinimumTenor()))
	}
	if !result.MonthlyPayment.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrDraftIncomplete, "down payment must be below the property price")
	}

	formJSON, err := json.Marshal(d.Snapshot().FormData)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &models.LoanApplication{
		UserID:         userID,
		PropertyID:     property.ID,
		RateID:         rateID,
		Status:         models.ApplicationStatusSubmitted,
		PropertyPrice:  property.Price,
		DownPayment:    downPayment,
		TenorYears:     tenor,
		MonthlyPayment: result.MonthlyPayment.Round(2),
		FormData:       string(formJSON),
		SubmittedAt:    s.now(),
		Property:       *property,
	}, nil
}

func (s *applicationService) store(ctx context.Context, app *models.LoanApplication, attachments *wizard.AttachmentSet) error {
	var saved []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
			return err
		}
		for _, a := range attachments.List() {
			path, err := s.documents.Save(ctx, app.ID, a.Field, a.Filename, a.Data)
			if err != nil {
				return err
			}
			saved = append(saved, path)

			doc := models.ApplicationDocument{
				ApplicationID: app.ID,
				Field:         a.Field,
				Filename:      a.Filename,
				ContentType:   a.ContentType,
				Size:          a.Size,
				StoragePath:   path,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
			app.Documents = append(app.Documents, doc)
		}
		return nil
	})
	if err != nil {
		for _, path := range saved {
			if rmErr := s.documents.Remove(ctx, path); rmErr != nil {
				logger.Get().Warnw("failed to remove orphaned document", "path", path, "error", rmErr)
			}
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListApplications pages through the user's applications, newest first.
func (s *applicationService) ListApplications(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.LoanApplication], error) {
	page.Defaults()

	var total int64
	base := s.db.Model(&models.LoanApplication{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var apps []models.LoanApplication
	if err := base.Preload("Property").Scopes(pagination.Paginate(page)).
		Order("submitted_at DESC").Find(&apps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(apps, page, total), nil
}

// GetApplication returns one of the user's applications with its documents.
func (s *applicationService) GetApplication(userID, applicationID string) (*models.LoanApplication, error) {
	var app models.LoanApplication
	err := s.db.Preload("Property").Preload("Documents").
		Where("id = ? AND user_id = ?", applicationID, userID).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &app, nil
}

// UpdateStatus moves an application along submitted -> in_review ->
// approved|rejected. Any other move is rejected.
func (s *applicationService) UpdateStatus(applicationID string, status models.ApplicationStatus, note string) (*models.LoanApplication, error) {
	var app models.LoanApplication
	var previousStatus models.ApplicationStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", applicationID).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrApplicationNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !app.Status.CanTransitionTo(status) {
			return apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
				fmt.Sprintf("Cannot move application from %s to %s", app.Status, status))
		}
		previousStatus = app.Status
		if err := tx.Model(&app).Updates(map[string]any{"status": status, "status_note": note}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		app.Status = status
		app.StatusNote = note
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(app.UserID, "UPDATE_APPLICATION_STATUS", "loan_application", app.ID, "", map[string]any{
		"from": previousStatus,
		"to":   status,
	})
	return &app, nil
}

// installmentRate prices a tiered rate at its first tier so the application
// records a concrete opening installment.
func installmentRate(rate loan.Rate) loan.Rate {
	tiered, ok := rate.(loan.TieredFixed)
	if !ok || tiered.Malformed || len(tiered.Tiers) == 0 {
		return rate
	}
	return loan.SingleFixed{AnnualRatePercent: tiered.Tiers[0].AnnualRatePercent, MinimumTenorYears: tiered.MinimumTenorYears}
}

func formBool(form wizard.FormData, key string) bool {
	v, _ := form[key].(bool)
	return v
}

func formDecimal(form wizard.FormData, key string) (decimal.Decimal, bool) {
	switch v := form[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func formInt(form wizard.FormData, key string) (int, bool) {
	switch v := form[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}
