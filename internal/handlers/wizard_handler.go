package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	apperrors "kpr/internal/errors"
	"kpr/internal/services"
	"kpr/internal/wizard"
)

// multipartOverhead is the slack allowed on top of the document limit for
// multipart boundaries and headers.
const multipartOverhead = 64 << 10

// WizardHandler drives the KPR application draft of the signed-in user.
type WizardHandler struct {
	wizardService      services.WizardServicer
	applicationService services.ApplicationServicer
	maxDocumentBytes   int64
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(
	wizardService services.WizardServicer,
	applicationService services.ApplicationServicer,
	maxDocumentBytes int64,
) *WizardHandler {
	return &WizardHandler{
		wizardService:      wizardService,
		applicationService: applicationService,
		maxDocumentBytes:   maxDocumentBytes,
	}
}

// FormDataRequest carries fields to merge into the draft.
type FormDataRequest struct {
	Data wizard.FormData `json:"data"`
}

// SetStepRequest jumps to a step. Out-of-range steps are clamped.
type SetStepRequest struct {
	Step *int `json:"step" binding:"required"`
}

// DraftResponse wraps the draft.
type DraftResponse struct {
	Draft *wizard.Draft `json:"draft"`
}

// Enter starts or resumes the application for a property.
// @Summary     Enter the application wizard
// @Description Bind the draft to the user and property. A draft belonging to another user or property is discarded.
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Param       property_id path int true "Property ID"
// @Success     200 {object} services.EnterResult "Draft"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /kpr-apply/{property_id}/enter [post]
func (h *WizardHandler) Enter(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	propertyID, err := parsePathID(c, "property_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.wizardService.Enter(c.Request.Context(), userID, propertyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDraft returns the current draft.
// @Summary     Get the draft
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DraftResponse "Draft"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /kpr-apply/draft [get]
func (h *WizardHandler) GetDraft(c *gin.Context) {
	h.draftAction(c, func(userID string) (*wizard.Draft, error) {
		return h.wizardService.Current(c.Request.Context(), userID)
	})
}

// Next merges the step's fields and advances.
// @Summary     Advance the draft
// @Tags        kpr-apply
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FormDataRequest false "Step fields"
// @Success     200 {object} DraftResponse "Draft"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /kpr-apply/draft/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	var req FormDataRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, invalidInput(err))
			return
		}
	}
	h.draftAction(c, func(userID string) (*wizard.Draft, error) {
		return h.wizardService.Next(c.Request.Context(), userID, req.Data)
	})
}

// Prev goes back one step.
// @Summary     Go back one step
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DraftResponse "Draft"
// @Router      /kpr-apply/draft/prev [post]
func (h *WizardHandler) Prev(c *gin.Context) {
	h.draftAction(c, func(userID string) (*wizard.Draft, error) {
		return h.wizardService.Prev(c.Request.Context(), userID)
	})
}

// UpdateForm merges fields without changing the step.
// @Summary     Update draft fields
// @Tags        kpr-apply
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FormDataRequest true "Fields"
// @Success     200 {object} DraftResponse "Draft"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /kpr-apply/draft [patch]
func (h *WizardHandler) UpdateForm(c *gin.Context) {
	var req FormDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	if len(req.Data) == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "data must not be empty"))
		return
	}
	h.draftAction(c, func(userID string) (*wizard.Draft, error) {
		return h.wizardService.UpdateForm(c.Request.Context(), userID, req.Data)
	})
}

// SetStep jumps to a step.
// @Summary     Jump to a step
// @Tags        kpr-apply
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetStepRequest true "Step"
// @Success     200 {object} DraftResponse "Draft"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /kpr-apply/draft/step [put]
func (h *WizardHandler) SetStep(c *gin.Context) {
	var req SetStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	h.draftAction(c, func(userID string) (*wizard.Draft, error) {
		return h.wizardService.SetStep(c.Request.Context(), userID, *req.Step)
	})
}

// Reset discards the draft and its uploads.
// @Summary     Discard the draft
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DraftResponse "Empty draft"
// @Router      /kpr-apply/draft [delete]
func (h *WizardHandler) Reset(c *gin.Context) {
	h.draftAction(c, func(userID string) (*wizard.Draft, error) {
		return h.wizardService.Reset(c.Request.Context(), userID)
	})
}

// UploadDocument attaches one document. Uploads are held in memory until
// submission and never written to the draft store.
// @Summary     Upload a document
// @Tags        kpr-apply
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       field path     string true "Document field" Enums(id_card, tax_id, employment_certificate, salary_slip, spouse_id_card, marriage_certificate)
// @Param       file  formData file   true "JPEG, PNG or PDF"
// @Success     200 {object} services.DocumentStatus "Upload status"
// @Failure     400 {object} ErrorResponse "Invalid document"
// @Failure     409 {object} ErrorResponse "No draft bound to a property"
// @Router      /kpr-apply/draft/documents/{field} [post]
func (h *WizardHandler) UploadDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	field := c.Param("field")
	if !wizard.IsAttachmentField(field) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidDocument, "unknown document field "+field))
		return
	}

	if h.maxDocumentBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxDocumentBytes+multipartOverhead)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidDocument, wizard.ErrDocumentTooLarge.Error()))
			return
		}
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidDocument, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	attachment := wizard.Attachment{
		Field:       field,
		Filename:    filepath.Base(fileHeader.Filename),
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
		Data:        data,
	}
	if err := h.wizardService.AttachDocument(c.Request.Context(), userID, attachment); err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithDocuments(c, userID)
}

// DeleteDocument removes one upload.
// @Summary     Remove a document
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Param       field path string true "Document field"
// @Success     200 {object} services.DocumentStatus "Upload status"
// @Failure     400 {object} ErrorResponse "Unknown field"
// @Router      /kpr-apply/draft/documents/{field} [delete]
func (h *WizardHandler) DeleteDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.wizardService.DetachDocument(c.Request.Context(), userID, c.Param("field")); err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithDocuments(c, userID)
}

// ListDocuments reports required, uploaded and missing documents.
// @Summary     Document checklist
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DocumentStatus "Upload status"
// @Router      /kpr-apply/draft/documents [get]
func (h *WizardHandler) ListDocuments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respondWithDocuments(c, userID)
}

// Submit files the application and clears the draft.
// @Summary     Submit the application
// @Description Requires both agreement flags and every required document
// @Tags        kpr-apply
// @Produce     json
// @Security    BearerAuth
// @Success     201 {object} models.LoanApplication "Submitted application"
// @Failure     409 {object} ErrorResponse "No draft bound to a property"
// @Failure     422 {object} ErrorResponse "Draft incomplete"
// @Router      /kpr-apply/submit [post]
func (h *WizardHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	app, err := h.applicationService.Submit(c.Request.Context(), userID, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": app})
}

func (h *WizardHandler) draftAction(c *gin.Context, fn func(userID string) (*wizard.Draft, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	draft, err := fn(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, DraftResponse{Draft: draft})
}

func (h *WizardHandler) respondWithDocuments(c *gin.Context, userID string) {
	status, err := h.wizardService.Documents(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
