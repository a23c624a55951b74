package loan

import (
	"math"

	"github.com/shopspring/decimal"
)

const monthsPerYear = 12

// Down payment band shown by the simulator, as a fraction of the price.
var (
	MinDownPaymentRatio = decimal.NewFromFloat(0.1)
	MaxDownPaymentRatio = decimal.NewFromFloat(0.8)
)

// Parameters is the simulator input. SelectedRate may be nil.
type Parameters struct {
	PropertyPrice decimal.Decimal
	DownPayment   decimal.Decimal
	TenorYears    int
	SelectedRate  Rate
}

// ScheduleEntry describes one tier of a tiered rate.
type ScheduleEntry struct {
	PeriodLabel               string          `json:"period"`
	RatePercentDisplay        string          `json:"rate"`
	MonthlyPaymentPlaceholder decimal.Decimal `json:"monthly_payment"`
}

// AmortizationResult is what the simulator renders. MonthlyPayment is zero for
// invalid input and for tiered rates; PaymentSchedule is only filled for tiered rates.
type AmortizationResult struct {
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	PaymentSchedule []ScheduleEntry `json:"payment_schedule"`
	IsValidTenor    bool            `json:"is_valid_tenor"`
}

// Display formats the monthly payment with two decimals.
func (r AmortizationResult) Display() string {
	return r.MonthlyPayment.StringFixed(2)
}

// Installment is one row of a month-by-month amortization table.
type Installment struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Balance   decimal.Decimal `json:"balance"`
}

// DownPaymentCheck reports whether a down payment sits in the allowed band.
type DownPaymentCheck struct {
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Valid bool            `json:"valid"`
}

// ComputeMonthlyPayment computes the fixed installment for a single-fixed rate,
// or the descriptive tier schedule for a tiered rate.
//
// A nil rate reports a valid tenor: with no rate chosen there is no minimum to
// violate, and callers rely on that to avoid showing a premature error.
func ComputeMonthlyPayment(p Parameters) AmortizationResult {
	result := AmortizationResult{
		MonthlyPayment:  decimal.Zero,
		PaymentSchedule: []ScheduleEntry{},
		IsValidTenor:    true,
	}

	if p.SelectedRate == nil {
		return result
	}
	if p.TenorYears < p.SelectedRate.MinimumTenor() {
		result.IsValidTenor = false
		return result
	}
	if _, ok := principalOf(p); !ok {
		return result
	}

	switch rate := p.SelectedRate.(type) {
	case SingleFixed:
		result.MonthlyPayment = installment(p, rate)
	case TieredFixed:
		result.PaymentSchedule = tierSchedule(rate)
	}
	return result
}

// FullSchedule expands a single-fixed loan into its monthly rows. It returns nil
// whenever ComputeMonthlyPayment would produce no installment. The last row
// absorbs rounding so the balance closes at zero.
func FullSchedule(p Parameters) []Installment {
	rate, ok := p.SelectedRate.(SingleFixed)
	if !ok || p.TenorYears < rate.MinimumTenorYears {
		return nil
	}
	principal, ok := principalOf(p)
	if !ok {
		return nil
	}

	payment := installment(p, rate)
	monthlyRate := rate.AnnualRatePercent.Div(decimal.NewFromInt(100 * monthsPerYear))
	periods := p.TenorYears * monthsPerYear

	rows := make([]Installment, 0, periods)
	balance := principal
	for month := 1; month <= periods; month++ {
		interest := balance.Mul(monthlyRate)
		paid := payment.Sub(interest)
		if month == periods {
			paid = balance
		}
		balance = balance.Sub(paid)
		rows = append(rows, Installment{
			Month:     month,
			Payment:   paid.Add(interest),
			Interest:  interest,
			Principal: paid,
			Balance:   balance,
		})
	}
	return rows
}

// CheckDownPayment reports the simulator's 10%-80% band for a given price.
func CheckDownPayment(price, downPayment decimal.Decimal) DownPaymentCheck {
	check := DownPaymentCheck{
		Min: price.Mul(MinDownPaymentRatio),
		Max: price.Mul(MaxDownPaymentRatio),
	}
	check.Valid = price.IsPositive() &&
		downPayment.GreaterThanOrEqual(check.Min) &&
		downPayment.LessThanOrEqual(check.Max)
	return check
}

func principalOf(p Parameters) (decimal.Decimal, bool) {
	if !p.PropertyPrice.IsPositive() || p.DownPayment.IsNegative() || p.DownPayment.GreaterThanOrEqual(p.PropertyPrice) {
		return decimal.Zero, false
	}
	return p.PropertyPrice.Sub(p.DownPayment), true
}

func installment(p Parameters, rate SingleFixed) decimal.Decimal {
	principal, ok := principalOf(p)
	if !ok || p.TenorYears <= 0 {
		return decimal.Zero
	}
	periods := p.TenorYears * monthsPerYear
	return principal.Mul(annuityFactor(monthlyRateOf(rate.AnnualRatePercent), periods))
}

func tierSchedule(rate TieredFixed) []ScheduleEntry {
	if rate.Malformed {
		return []ScheduleEntry{}
	}
	schedule := make([]ScheduleEntry, 0, len(rate.Tiers))
	for _, tier := range rate.Tiers {
		schedule = append(schedule, ScheduleEntry{
			PeriodLabel:               tier.Label,
			RatePercentDisplay:        FormatRatePercent(tier.AnnualRatePercent),
			MonthlyPaymentPlaceholder: decimal.Zero,
		})
	}
	return schedule
}

func monthlyRateOf(annualPercent decimal.Decimal) float64 {
	return annualPercent.InexactFloat64() / 100 / monthsPerYear
}

// annuityFactor is payment per unit of principal: r(1+r)^n / ((1+r)^n - 1),
// or 1/n for a zero rate. The growth term is evaluated in float64; the factor
// is applied to the decimal principal so money stays in decimal.
func annuityFactor(monthlyRate float64, periods int) decimal.Decimal {
	if periods <= 0 {
		return decimal.Zero
	}
	if monthlyRate == 0 {
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(periods)))
	}
	growth := math.Pow(1+monthlyRate, float64(periods))
	return decimal.NewFromFloat(monthlyRate * growth / (growth - 1))
}

// presentValueFactor is the inverse of annuityFactor: principal per unit of
// installment.
func presentValueFactor(monthlyRate float64, periods int) decimal.Decimal {
	if periods <= 0 {
		return decimal.Zero
	}
	if monthlyRate == 0 {
		return decimal.NewFromInt(int64(periods))
	}
	growth := math.Pow(1+monthlyRate, float64(periods))
	return decimal.NewFromFloat((growth - 1) / (monthlyRate * growth))
}
