package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "kpr/internal/errors"
	"kpr/internal/loan"
	"kpr/internal/services"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CalculatorHandler serves the simulator, the affordability estimator and the
// interest-rate catalog. None of its routes require authentication.
type CalculatorHandler struct {
	calculatorService services.CalculatorServicer
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(calculatorService services.CalculatorServicer) *CalculatorHandler {
	return &CalculatorHandler{calculatorService: calculatorService}
}

// SimulateRequest represents the simulator form.
type SimulateRequest struct {
	PropertyPrice decimal.Decimal `json:"property_price" swaggertype:"number" example:"500000000"`
	DownPayment   decimal.Decimal `json:"down_payment" swaggertype:"number" example:"100000000"`
	TenorYears    int             `json:"tenor_years" binding:"required,min=1,max=30" example:"15"`
	RateID        int             `json:"rate_id" binding:"omitempty,min=1" example:"1"`
}

func (r SimulateRequest) toService() services.SimulationRequest {
	return services.SimulationRequest{
		PropertyPrice: r.PropertyPrice,
		DownPayment:   r.DownPayment,
		TenorYears:    r.TenorYears,
		RateID:        r.RateID,
	}
}

// AffordabilityRequest represents the affordability form.
type AffordabilityRequest struct {
	JobType            string          `json:"job_type" binding:"required,job_type" example:"karyawan"`
	Age                int             `json:"age" binding:"required,min=17,max=75" example:"30"`
	MonthlyIncome      decimal.Decimal `json:"monthly_income" swaggertype:"number" example:"15000000"`
	MonthlyExpenses    decimal.Decimal `json:"monthly_expenses" swaggertype:"number" example:"5000000"`
	TenorYears         int             `json:"tenor_years" binding:"required,min=1,max=30" example:"15"`
	DownPayment        decimal.Decimal `json:"down_payment" swaggertype:"number" example:"100000000"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment" swaggertype:"number" example:"4000000"`
	RateID             int             `json:"rate_id" binding:"required,min=1" example:"1"`
}

// Simulate computes the monthly installment for a rate.
// @Summary     Simulate a mortgage
// @Description Compute the monthly installment (single-fixed) or tier schedule (tiered-fixed) plus the down payment band. Without rate_id the tenor is reported valid and the installment is zero.
// @Tags        calculator
// @Accept      json
// @Produce     json
// @Param       request body SimulateRequest true "Simulator input"
// @Success     200 {object} services.SimulationResult "Simulation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rate not found"
// @Router      /simulator [post]
func (h *CalculatorHandler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.calculatorService.Simulate(req.toService())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportSchedulePDF renders the amortization table as PDF.
// @Summary     Export schedule as PDF
// @Tags        calculator
// @Accept      json
// @Produce     application/pdf
// @Param       request body SimulateRequest true "Simulator input"
// @Success     200 {file} file "Amortization schedule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rate not found"
// @Router      /simulator/schedule.pdf [post]
func (h *CalculatorHandler) ExportSchedulePDF(c *gin.Context) {
	h.exportSchedule(c, services.ExportPDF, contentTypePDF)
}

// ExportScheduleXLSX renders the amortization table as a spreadsheet.
// @Summary     Export schedule as XLSX
// @Tags        calculator
// @Accept      json
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param       request body SimulateRequest true "Simulator input"
// @Success     200 {file} file "Amortization schedule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rate not found"
// @Router      /simulator/schedule.xlsx [post]
func (h *CalculatorHandler) ExportScheduleXLSX(c *gin.Context) {
	h.exportSchedule(c, services.ExportXLSX, contentTypeXLSX)
}

func (h *CalculatorHandler) exportSchedule(c *gin.Context, format services.ExportFormat, contentType string) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	doc, err := h.calculatorService.ExportSchedule(req.toService(), format)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="kpr-schedule.`+string(format)+`"`)
	c.Data(http.StatusOK, contentType, doc)
}

// Affordability estimates the maximum property price.
// @Summary     Estimate affordability
// @Description Cap the installment at min(income - expenses, income * DTI) and solve for the price
// @Tags        calculator
// @Accept      json
// @Produce     json
// @Param       request body AffordabilityRequest true "Affordability input"
// @Success     200 {object} loan.AffordabilityResult "Estimate"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rate not found"
// @Router      /affordability [post]
func (h *CalculatorHandler) Affordability(c *gin.Context) {
	var req AffordabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	if !req.MonthlyIncome.IsPositive() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly_income must be positive"))
		return
	}
	if req.MonthlyExpenses.IsNegative() || req.DownPayment.IsNegative() || req.MonthlyInstallment.IsNegative() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "amounts must not be negative"))
		return
	}

	result, err := h.calculatorService.Affordability(loan.AffordabilityInput{
		JobType:            req.JobType,
		Age:                req.Age,
		MonthlyIncome:      req.MonthlyIncome,
		MonthlyExpenses:    req.MonthlyExpenses,
		TenorYears:         req.TenorYears,
		DownPayment:        req.DownPayment,
		MonthlyInstallment: req.MonthlyInstallment,
		SelectedRateID:     req.RateID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRates returns the interest-rate catalog.
// @Summary     List interest rates
// @Tags        interest-rates
// @Produce     json
// @Success     200 {object} map[string][]loan.RateSpec "Catalog"
// @Router      /interest-rates [get]
func (h *CalculatorHandler) ListRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.calculatorService.ListRates()})
}

// GetRate returns one catalog entry.
// @Summary     Get interest rate
// @Tags        interest-rates
// @Produce     json
// @Param       id path int true "Rate ID"
// @Success     200 {object} loan.RateSpec "Rate"
// @Failure     400 {object} ErrorResponse "Invalid rate ID"
// @Failure     404 {object} ErrorResponse "Rate not found"
// @Router      /interest-rates/{id} [get]
func (h *CalculatorHandler) GetRate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid id"))
		return
	}

	entry, err := h.calculatorService.GetRate(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rate": entry.Spec})
}
