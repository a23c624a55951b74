package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "kpr/internal/errors"
	"kpr/internal/models"
	"kpr/internal/pagination"
	"kpr/internal/services"
)

// ApplicationHandler serves the user's application history and the
// back-office status pipeline.
type ApplicationHandler struct {
	applicationService services.ApplicationServicer
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(applicationService services.ApplicationServicer) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// UpdateStatusRequest moves an application along the review pipeline.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,application_status" example:"in_review"`
	Note   string `json:"note" binding:"max=500"`
}

// ListApplications returns the user's submitted applications.
// @Summary     List applications
// @Tags        applications
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.LoanApplication] "Paginated applications"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.applicationService.ListApplications(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetApplication returns one of the user's applications with its documents.
// @Summary     Get application
// @Tags        applications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Application ID"
// @Success     200 {object} models.LoanApplication "Application"
// @Failure     400 {object} ErrorResponse "Invalid application ID"
// @Failure     404 {object} ErrorResponse "Application not found"
// @Router      /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	appID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	app, err := h.applicationService.GetApplication(userID, appID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": app})
}

// UpdateStatus is called by the loan-review back office.
// @Summary     Update application status
// @Description Allowed transitions: submitted to in_review, in_review to approved or rejected
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string              true "Application ID"
// @Param       request body UpdateStatusRequest true "New status"
// @Success     200 {object} models.LoanApplication "Updated application"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Application not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Router      /pipeline/applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	appID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	app, err := h.applicationService.UpdateStatus(appID, models.ApplicationStatus(req.Status), req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": app})
}

func parseUUIDParam(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if err := uuid.Validate(id); err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}
