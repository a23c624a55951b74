package loan

import "github.com/shopspring/decimal"

// DefaultDebtToIncomeRatio caps the installment at this share of gross income.
const DefaultDebtToIncomeRatio = 0.30

// AffordabilityPolicy holds lender policy knobs for the estimator.
type AffordabilityPolicy struct {
	DebtToIncomeRatio decimal.Decimal
}

// DefaultAffordabilityPolicy returns the policy used when nothing is configured.
func DefaultAffordabilityPolicy() AffordabilityPolicy {
	return AffordabilityPolicy{DebtToIncomeRatio: decimal.NewFromFloat(DefaultDebtToIncomeRatio)}
}

// AffordabilityInput mirrors the affordability form.
type AffordabilityInput struct {
	JobType            string
	Age                int
	MonthlyIncome      decimal.Decimal
	MonthlyExpenses    decimal.Decimal
	TenorYears         int
	DownPayment        decimal.Decimal
	MonthlyInstallment decimal.Decimal
	SelectedRateID     int
}

// AffordabilityResult is the estimate shown next to the form.
type AffordabilityResult struct {
	AffordablePrice decimal.Decimal `json:"affordable_price"`
	MaxInstallment  decimal.Decimal `json:"max_installment"`
	IsAffordable    bool            `json:"is_affordable"`
}

// EstimateAffordability solves the annuity formula for the largest principal the
// sustainable installment can carry and adds the down payment back.
//
// The sustainable installment is min(income - expenses, income * DTI ratio).
// Tiered rates are priced at their first tier. A nil or malformed rate, or a
// non-positive tenor, yields a zero estimate that is never affordable.
func EstimateAffordability(in AffordabilityInput, rate Rate, policy AffordabilityPolicy) AffordabilityResult {
	result := AffordabilityResult{AffordablePrice: decimal.Zero, MaxInstallment: decimal.Zero}

	annual, ok := pricingRate(rate)
	if !ok || in.TenorYears <= 0 {
		return result
	}

	ceiling := SustainableInstallment(in.MonthlyIncome, in.MonthlyExpenses, policy)
	result.MaxInstallment = ceiling
	if !ceiling.IsPositive() {
		return result
	}

	principal := ceiling.Mul(presentValueFactor(monthlyRateOf(annual), in.TenorYears*monthsPerYear))
	downPayment := in.DownPayment
	if downPayment.IsNegative() {
		downPayment = decimal.Zero
	}
	result.AffordablePrice = principal.Add(downPayment)
	result.IsAffordable = !in.MonthlyInstallment.GreaterThan(ceiling)
	return result
}

// SustainableInstallment is the monthly ceiling implied by income, expenses and policy.
func SustainableInstallment(income, expenses decimal.Decimal, policy AffordabilityPolicy) decimal.Decimal {
	disposable := income.Sub(expenses)
	if disposable.IsNegative() {
		disposable = decimal.Zero
	}
	ratio := policy.DebtToIncomeRatio
	if !ratio.IsPositive() {
		return disposable
	}
	return decimal.Min(disposable, income.Mul(ratio))
}

func pricingRate(rate Rate) (decimal.Decimal, bool) {
	switch r := rate.(type) {
	case SingleFixed:
		return r.AnnualRatePercent, true
	case TieredFixed:
		if r.Malformed || len(r.Tiers) == 0 {
			return decimal.Zero, false
		}
		return r.Tiers[0].AnnualRatePercent, true
	default:
		return decimal.Zero, false
	}
}
