// Package render формирует документы отчётов: PDF, XLSX и текстовую сводку
// для тела письма.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Поддерживаемые форматы документов.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Renderer превращает данные отчёта в документ.
type Renderer interface {
	RenderMonthly(ctx context.Context, p models.MonthlyPayload) ([]byte, error)
	RenderYearly(ctx context.Context, p models.YearlyPayload) ([]byte, error)
	ContentType() string
	Extension() string
}

// New возвращает рендерер для формата format; currency печатается перед суммами.
func New(format, currency string) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatPDF, "":
		return NewPDF(currency), nil
	case FormatXLSX:
		return NewXLSX(currency), nil
	default:
		return nil, fmt.Errorf("render.New: unsupported format %q", format)
	}
}

// Filename имя вложения: alice_monthly_2026_09.pdf или alice_yearly_2025.xlsx.
func Filename(r Renderer, username string, kind models.ReportKind, year int, month time.Month) string {
	if kind == models.ReportMonthly {
		return fmt.Sprintf("%s_%s_%d_%02d.%s", username, kind, year, int(month), r.Extension())
	}
	return fmt.Sprintf("%s_%s_%d.%s", username, kind, year, r.Extension())
}

func money(currency string, v float64) string {
	return currency + decimal.NewFromFloat(v).StringFixed(2)
}

const timestampLayout = "02/01/2006 15:04 MST"
