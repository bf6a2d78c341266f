package render

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const sheetName = "Report"

// XLSX рендерер отчётов в таблицу Excel.
type XLSX struct {
	currency string
}

// NewXLSX создаёт XLSX-рендерер.
func NewXLSX(currency string) *XLSX {
	return &XLSX{currency: currency}
}

// ContentType MIME-тип документа.
func (r *XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension расширение файла.
func (r *XLSX) Extension() string { return FormatXLSX }

type sheet struct {
	f     *excelize.File
	row   int
	bold  int
	money int
}

func newSheet(currency string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	format := `"` + currency + `"0.00`
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "A", "A", 36); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 18); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &sheet{f: f, row: 1, bold: bold, money: moneyStyle}, nil
}

func (s *sheet) text(label, value string, bold bool) error {
	a, b := s.cells()
	if err := s.f.SetCellValue(sheetName, a, label); err != nil {
		return err
	}
	if err := s.f.SetCellValue(sheetName, b, value); err != nil {
		return err
	}
	if bold {
		if err := s.f.SetCellStyle(sheetName, a, b, s.bold); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

func (s *sheet) amount(label string, value float64) error {
	a, b := s.cells()
	if err := s.f.SetCellValue(sheetName, a, label); err != nil {
		return err
	}
	if err := s.f.SetCellFloat(sheetName, b, value, -1, 64); err != nil {
		return err
	}
	if err := s.f.SetCellStyle(sheetName, b, b, s.money); err != nil {
		return err
	}
	s.row++
	return nil
}

func (s *sheet) blank() { s.row++ }

func (s *sheet) cells() (string, string) {
	return "A" + strconv.Itoa(s.row), "B" + strconv.Itoa(s.row)
}

func (s *sheet) bytes() ([]byte, error) {
	defer func() { _ = s.f.Close() }()
	buf, err := s.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderMonthly формирует месячный отчёт.
func (r *XLSX) RenderMonthly(ctx context.Context, p models.MonthlyPayload) ([]byte, error) {
	const op = "render.XLSX.RenderMonthly"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s, err := newSheet(r.currency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	steps := []func() error{
		func() error { return s.text("Subscription report", p.Period, true) },
		func() error { return s.text("User", p.Username, false) },
		func() error { return s.text("Generated", p.GeneratedAt.Format(timestampLayout), false) },
		func() error { s.blank(); return s.text("Subscription", "Monthly cost", true) },
	}
	for _, item := range p.Subscriptions {
		steps = append(steps, func() error { return s.amount(item.Name, item.Price) })
	}
	if p.CancelledTotal > 0 {
		steps = append(steps, func() error { return s.amount("Cancelled subscriptions", p.CancelledTotal) })
	}
	steps = append(steps,
		func() error { return s.amount("Grand total", p.GrandTotal) },
		func() error { return s.amount("Monthly budget", p.Budget) },
	)
	if p.Note != "" {
		steps = append(steps, func() error { s.blank(); return s.text("Note", p.Note, false) })
	}

	return run(op, s, steps)
}

// RenderYearly формирует годовой отчёт.
func (r *XLSX) RenderYearly(ctx context.Context, p models.YearlyPayload) ([]byte, error) {
	const op = "render.XLSX.RenderYearly"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s, err := newSheet(r.currency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	steps := []func() error{
		func() error { return s.text("Yearly subscription report", strconv.Itoa(p.Year), true) },
		func() error { return s.text("User", p.Username, false) },
		func() error { return s.text("Generated", p.GeneratedAt.Format(timestampLayout), false) },
		func() error { s.blank(); return s.text("Month", "Total", true) },
	}
	for _, row := range p.MonthlyReports {
		steps = append(steps, func() error { return s.amount(row.Month.String(), row.TotalAmount) })
	}
	steps = append(steps,
		func() error { return s.amount("Grand total", p.GrandTotal) },
		func() error { return s.amount("Yearly budget", p.YearlyBudgetAmount) },
	)
	if p.Note != "" {
		steps = append(steps, func() error { s.blank(); return s.text("Note", p.Note, false) })
	}

	return run(op, s, steps)
}

func run(op string, s *sheet, steps []func() error) ([]byte, error) {
	for _, step := range steps {
		if err := step(); err != nil {
			_ = s.f.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	data, err := s.bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}
