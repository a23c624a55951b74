// Package export renders amortization schedules as PDF and XLSX documents.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"kpr/internal/loan"
)

// ScheduleSummary is the header block printed above the table.
type ScheduleSummary struct {
	RateTitle      string
	RatePercent    string
	PropertyPrice  decimal.Decimal
	DownPayment    decimal.Decimal
	Principal      decimal.Decimal
	TenorYears     int
	MonthlyPayment decimal.Decimal
	GeneratedAt    time.Time
}

// BuildSchedulePDF renders the summary and the monthly rows on A4 pages.
func BuildSchedulePDF(summary ScheduleSummary, rows []loan.Installment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Simulasi Angsuran KPR")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, line := range summaryLines(summary) {
		pdf.Cell(0, 6, line[0]+": "+line[1])
		pdf.Ln(5)
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(15, 6, "Bulan", "1", 0, "C", false, 0, "")
		pdf.CellFormat(42, 6, "Angsuran", "1", 0, "C", false, 0, "")
		pdf.CellFormat(42, 6, "Bunga", "1", 0, "C", false, 0, "")
		pdf.CellFormat(42, 6, "Pokok", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Sisa Pinjaman", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	}, true)
	header()

	for _, row := range rows {
		pdf.CellFormat(15, 5, fmt.Sprintf("%d", row.Month), "1", 0, "C", false, 0, "")
		pdf.CellFormat(42, 5, FormatRupiah(row.Payment), "1", 0, "R", false, 0, "")
		pdf.CellFormat(42, 5, FormatRupiah(row.Interest), "1", 0, "R", false, 0, "")
		pdf.CellFormat(42, 5, FormatRupiah(row.Principal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 5, FormatRupiah(row.Balance), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render schedule pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildScheduleXLSX writes a "summary" sheet and a "schedule" sheet.
func BuildScheduleXLSX(summary ScheduleSummary, rows []loan.Installment) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	summarySheet := "summary"
	scheduleSheet := "schedule"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", "Simulasi Angsuran KPR")
	for i, line := range summaryLines(summary) {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), line[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), line[1])
	}

	for col, title := range []string{"Bulan", "Angsuran", "Bunga", "Pokok", "Sisa Pinjaman"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(scheduleSheet, cell, title)
	}
	for i, r := range rows {
		row := i + 2
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("A%d", row), r.Month)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("B%d", row), r.Payment.Round(2).InexactFloat64())
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("C%d", row), r.Interest.Round(2).InexactFloat64())
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("D%d", row), r.Principal.Round(2).InexactFloat64())
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("E%d", row), r.Balance.Round(2).InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render schedule xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryLines(s ScheduleSummary) [][2]string {
	return [][2]string{
		{"Suku Bunga", strings.TrimSpace(s.RateTitle + " " + s.RatePercent)},
		{"Harga Properti", FormatRupiah(s.PropertyPrice)},
		{"Uang Muka", FormatRupiah(s.DownPayment)},
		{"Pokok Pinjaman", FormatRupiah(s.Principal)},
		{"Tenor", fmt.Sprintf("%d tahun", s.TenorYears)},
		{"Angsuran per Bulan", FormatRupiah(s.MonthlyPayment)},
		{"Dibuat", s.GeneratedAt.Format(time.RFC3339)},
	}
}

// FormatRupiah renders an amount rounded to whole rupiah with Indonesian
// thousands separators: 7867816.4 -> "Rp 7.867.816".
func FormatRupiah(amount decimal.Decimal) string {
	whole := amount.Round(0)
	sign := ""
	if whole.IsNegative() {
		sign = "-"
	}
	return sign + "Rp " + rupiahPrinter.Sprintf("%d", whole.Abs().IntPart())
}

var rupiahPrinter = message.NewPrinter(language.Indonesian)
