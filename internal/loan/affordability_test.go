package loan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func defaultInput() AffordabilityInput {
	return AffordabilityInput{
		JobType:            "karyawan",
		Age:                30,
		MonthlyIncome:      rupiah(10_000_000),
		MonthlyExpenses:    rupiah(5_000_000),
		TenorYears:         15,
		DownPayment:        rupiah(200_000_000),
		MonthlyInstallment: rupiah(1_500_000),
		SelectedRateID:     1,
	}
}

func TestSustainableInstallment(t *testing.T) {
	policy := DefaultAffordabilityPolicy()

	t.Run("capped by debt to income ratio", func(t *testing.T) {
		got := SustainableInstallment(rupiah(10_000_000), rupiah(5_000_000), policy)
		assert.Equal(t, "3000000", got.String())
	})

	t.Run("capped by disposable income", func(t *testing.T) {
		got := SustainableInstallment(rupiah(10_000_000), rupiah(8_000_000), policy)
		assert.Equal(t, "2000000", got.String())
	})

	t.Run("expenses above income floor at zero", func(t *testing.T) {
		got := SustainableInstallment(rupiah(5_000_000), rupiah(6_000_000), policy)
		assert.True(t, got.IsZero())
	})

	t.Run("zero ratio disables the cap", func(t *testing.T) {
		got := SustainableInstallment(rupiah(10_000_000), rupiah(2_000_000), AffordabilityPolicy{})
		assert.Equal(t, "8000000", got.String())
	})
}

func TestEstimateAffordability(t *testing.T) {
	policy := DefaultAffordabilityPolicy()

	t.Run("defaults are affordable", func(t *testing.T) {
		res := EstimateAffordability(defaultInput(), singleFixed(8.5, 5), policy)

		assert.True(t, res.IsAffordable)
		assert.Equal(t, "3000000", res.MaxInstallment.String())
		assert.True(t, res.AffordablePrice.GreaterThan(rupiah(500_000_000)), "got %s", res.AffordablePrice)
		assert.True(t, res.AffordablePrice.LessThan(rupiah(510_000_000)), "got %s", res.AffordablePrice)
	})

	t.Run("requested installment above ceiling", func(t *testing.T) {
		in := defaultInput()
		in.MonthlyInstallment = rupiah(3_500_000)
		res := EstimateAffordability(in, singleFixed(8.5, 5), policy)
		assert.False(t, res.IsAffordable)
		assert.True(t, res.AffordablePrice.IsPositive())
	})

	t.Run("installment equal to ceiling is affordable", func(t *testing.T) {
		in := defaultInput()
		in.MonthlyInstallment = rupiah(3_000_000)
		assert.True(t, EstimateAffordability(in, singleFixed(8.5, 5), policy).IsAffordable)
	})

	t.Run("longer tenor raises the price", func(t *testing.T) {
		short := defaultInput()
		short.TenorYears = 10
		long := defaultInput()
		long.TenorYears = 25

		a := EstimateAffordability(short, singleFixed(8.5, 5), policy)
		b := EstimateAffordability(long, singleFixed(8.5, 5), policy)
		assert.True(t, b.AffordablePrice.GreaterThan(a.AffordablePrice))
	})

	t.Run("tiered rate priced at first tier", func(t *testing.T) {
		tiered := TieredFixed{
			Tiers: []Tier{
				{Label: "Year 1-2", AnnualRatePercent: decimal.NewFromFloat(8.5)},
				{Label: "Year 3-15", AnnualRatePercent: decimal.NewFromFloat(11)},
			},
			MinimumTenorYears: 5,
		}
		got := EstimateAffordability(defaultInput(), tiered, policy)
		want := EstimateAffordability(defaultInput(), singleFixed(8.5, 5), policy)
		assert.True(t, got.AffordablePrice.Equal(want.AffordablePrice))
	})

	t.Run("no income is never affordable", func(t *testing.T) {
		in := defaultInput()
		in.MonthlyIncome = decimal.Zero
		res := EstimateAffordability(in, singleFixed(8.5, 5), policy)
		assert.False(t, res.IsAffordable)
		assert.True(t, res.AffordablePrice.IsZero())
	})

	t.Run("nil and malformed rates yield zero", func(t *testing.T) {
		for _, rate := range []Rate{nil, TieredFixed{Malformed: true, MinimumTenorYears: 5}} {
			res := EstimateAffordability(defaultInput(), rate, policy)
			assert.False(t, res.IsAffordable)
			assert.True(t, res.AffordablePrice.IsZero())
			assert.True(t, res.MaxInstallment.IsZero())
		}
	})

	t.Run("zero rate multiplies ceiling by periods", func(t *testing.T) {
		in := defaultInput()
		in.TenorYears = 10
		in.DownPayment = decimal.Zero
		res := EstimateAffordability(in, singleFixed(0, 5), policy)
		assert.Equal(t, "360000000", res.AffordablePrice.String())
	})
}
