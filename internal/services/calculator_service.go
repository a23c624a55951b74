package services

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "kpr/internal/errors"
	"kpr/internal/export"
	"kpr/internal/loan"
	"kpr/internal/metrics"
	"kpr/internal/rates"
)

// calculatorService runs the loan engine against the live rate registry.
type calculatorService struct {
	registry *rates.Registry
	policy   loan.AffordabilityPolicy
	now      func() time.Time
}

// NewCalculatorService creates a new CalculatorServicer.
func NewCalculatorService(registry *rates.Registry, policy loan.AffordabilityPolicy) CalculatorServicer {
	return &calculatorService{registry: registry, policy: policy, now: time.Now}
}

// ListRates returns the catalog in ID order.
func (s *calculatorService) ListRates() []loan.RateSpec {
	entries := s.registry.List()
	specs := make([]loan.RateSpec, 0, len(entries))
	for _, e := range entries {
		specs = append(specs, e.Spec)
	}
	return specs
}

// GetRate looks up one catalog entry.
func (s *calculatorService) GetRate(id int) (rates.Entry, error) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return rates.Entry{}, apperrors.ErrRateNotFound
	}
	return entry, nil
}

// Simulate computes the monthly installment, or the tier schedule, for the
// selected rate. Out-of-range inputs produce a zero installment, not an error.
func (s *calculatorService) Simulate(req SimulationRequest) (result *SimulationResult, err error) {
	defer func() { metrics.Calculations.WithLabelValues("simulate", metrics.Result(err)).Inc() }()

	params := loan.Parameters{
		PropertyPrice: req.PropertyPrice,
		DownPayment:   req.DownPayment,
		TenorYears:    req.TenorYears,
	}
	var spec *loan.RateSpec
	if req.RateID != 0 {
		entry, err := s.GetRate(req.RateID)
		if err != nil {
			return nil, err
		}
		params.SelectedRate = entry.Rate
		spec = &entry.Spec
	}
	amortization := loan.ComputeMonthlyPayment(params)

	principal := req.PropertyPrice.Sub(req.DownPayment)
	if principal.IsNegative() {
		principal = decimal.Zero
	}

	return &SimulationResult{
		Rate:             spec,
		Principal:        principal,
		Amortization:     amortization,
		Display:          amortization.Display(),
		DownPaymentCheck: loan.CheckDownPayment(req.PropertyPrice, req.DownPayment),
	}, nil
}

// Affordability estimates the highest price the applicant can carry.
func (s *calculatorService) Affordability(in loan.AffordabilityInput) (result *loan.AffordabilityResult, err error) {
	defer func() { metrics.Calculations.WithLabelValues("affordability", metrics.Result(err)).Inc() }()

	entry, err := s.GetRate(in.SelectedRateID)
	if err != nil {
		return nil, err
	}
	estimate := loan.EstimateAffordability(in, entry.Rate, s.policy)
	return &estimate, nil
}

// ExportSchedule renders the month-by-month table. Only single-fixed rates
// have one; anything the simulator cannot price is an invalid input here.
func (s *calculatorService) ExportSchedule(req SimulationRequest, format ExportFormat) (doc []byte, err error) {
	defer func() { metrics.Calculations.WithLabelValues("schedule", metrics.Result(err)).Inc() }()

	if req.RateID == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate_id is required for a schedule export")
	}
	entry, err := s.GetRate(req.RateID)
	if err != nil {
		return nil, err
	}
	fixed, ok := entry.Rate.(loan.SingleFixed)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "schedule export is only available for single-fixed rates")
	}

	params := loan.Parameters{
		PropertyPrice: req.PropertyPrice,
		DownPayment:   req.DownPayment,
		TenorYears:    req.TenorYears,
		SelectedRate:  fixed,
	}
	rows := loan.FullSchedule(params)
	if rows == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan terms do not produce an installment")
	}

	summary := export.ScheduleSummary{
		RateTitle:      entry.Spec.Title,
		RatePercent:    loan.FormatRatePercent(fixed.AnnualRatePercent),
		PropertyPrice:  req.PropertyPrice,
		DownPayment:    req.DownPayment,
		Principal:      req.PropertyPrice.Sub(req.DownPayment),
		TenorYears:     req.TenorYears,
		MonthlyPayment: loan.ComputeMonthlyPayment(params).MonthlyPayment,
		GeneratedAt:    s.now(),
	}

	switch format {
	case ExportPDF:
		doc, err = export.BuildSchedulePDF(summary, rows)
	case ExportXLSX:
		doc, err = export.BuildScheduleXLSX(summary, rows)
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported export format")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return doc, nil
}
