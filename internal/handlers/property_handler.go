package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kpr/internal/pagination"
	"kpr/internal/services"
)

// PropertyHandler serves the property catalog.
type PropertyHandler struct {
	propertyService services.PropertyServicer
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService services.PropertyServicer) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// ListProperties returns active listings.
// @Summary     List properties
// @Tags        properties
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Property] "Paginated properties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /properties [get]
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.propertyService.ListProperties(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProperty returns the detail the application wizard snapshots.
// @Summary     Get property
// @Tags        properties
// @Produce     json
// @Param       id path int true "Property ID"
// @Success     200 {object} wizard.PropertyDetail "Property detail"
// @Failure     400 {object} ErrorResponse "Invalid property ID"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /properties/{id} [get]
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	property, err := h.propertyService.GetProperty(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": services.PropertyDetailOf(property)})
}
