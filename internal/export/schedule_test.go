package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kpr/internal/loan"
)

func sampleSchedule(t *testing.T) (ScheduleSummary, []loan.Installment) {
	t.Helper()
	params := loan.Parameters{
		PropertyPrice: decimal.NewFromInt(500_000_000),
		DownPayment:   decimal.NewFromInt(100_000_000),
		TenorYears:    10,
		SelectedRate:  loan.SingleFixed{AnnualRatePercent: decimal.NewFromInt(6), MinimumTenorYears: 5},
	}
	rows := loan.FullSchedule(params)
	require.Len(t, rows, 120)
	return ScheduleSummary{
		RateTitle:      "Fixed 10 Tahun",
		RatePercent:    "6.0%",
		PropertyPrice:  params.PropertyPrice,
		DownPayment:    params.DownPayment,
		Principal:      decimal.NewFromInt(400_000_000),
		TenorYears:     10,
		MonthlyPayment: loan.ComputeMonthlyPayment(params).MonthlyPayment,
		GeneratedAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}, rows
}

func TestBuildSchedulePDF(t *testing.T) {
	summary, rows := sampleSchedule(t)
	data, err := BuildSchedulePDF(summary, rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 1000)
}

func TestBuildScheduleXLSX(t *testing.T) {
	summary, rows := sampleSchedule(t)
	data, err := BuildScheduleXLSX(summary, rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	title, err := f.GetCellValue("summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Simulasi Angsuran KPR", title)

	principal, err := f.GetCellValue("summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "Rp 400.000.000", principal)

	header, err := f.GetCellValue("schedule", "E1")
	require.NoError(t, err)
	assert.Equal(t, "Sisa Pinjaman", header)

	lastMonth, err := f.GetCellValue("schedule", "A121")
	require.NoError(t, err)
	assert.Equal(t, "120", lastMonth)

	lastBalance, err := f.GetCellValue("schedule", "E121")
	require.NoError(t, err)
	assert.Equal(t, "0", lastBalance)
}

func TestFormatRupiah(t *testing.T) {
	cases := map[string]decimal.Decimal{
		"Rp 0":             decimal.Zero,
		"Rp 999":           decimal.NewFromInt(999),
		"Rp 1.000":         decimal.NewFromInt(1000),
		"Rp 7.867.816":     decimal.NewFromFloat(7867816.4),
		"Rp 1.000.000.000": decimal.NewFromInt(1_000_000_000),
		"-Rp 12.500":       decimal.NewFromInt(-12500),
	}
	for want, in := range cases {
		assert.Equal(t, want, FormatRupiah(in))
	}
}
