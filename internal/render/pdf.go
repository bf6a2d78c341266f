package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// PDF рендерер отчётов в PDF.
type PDF struct {
	currency string
}

// NewPDF создаёт PDF-рендерер.
func NewPDF(currency string) *PDF {
	return &PDF{currency: currency}
}

// ContentType MIME-тип документа.
func (r *PDF) ContentType() string { return "application/pdf" }

// Extension расширение файла.
func (r *PDF) Extension() string { return FormatPDF }

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPDFDoc(title string) *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("subscription-tracker", true)
	pdf.AddPage()
	return &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *pdfDoc) heading(text string) {
	d.pdf.SetFont("Helvetica", "B", 16)
	d.pdf.CellFormat(0, 10, d.tr(text), "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *pdfDoc) line(text string) {
	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.MultiCell(0, 6, d.tr(text), "", "L", false)
}

func (d *pdfDoc) tableHeader(left, right string) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.SetFillColor(230, 230, 230)
	d.pdf.CellFormat(120, 8, d.tr(left), "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(50, 8, d.tr(right), "1", 1, "R", true, 0, "")
}

func (d *pdfDoc) tableRow(left, right string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont("Helvetica", style, 11)
	d.pdf.CellFormat(120, 7, d.tr(left), "1", 0, "L", false, 0, "")
	d.pdf.CellFormat(50, 7, d.tr(right), "1", 1, "R", false, 0, "")
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderMonthly формирует месячный отчёт.
func (r *PDF) RenderMonthly(ctx context.Context, p models.MonthlyPayload) ([]byte, error) {
	const op = "render.PDF.RenderMonthly"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc := newPDFDoc("Monthly report " + p.Period)
	doc.pdf.SetCreationDate(p.GeneratedAt)
	doc.heading("Subscription report: " + p.Period)
	doc.line("User: " + p.Username)
	doc.line("Generated: " + p.GeneratedAt.Format(timestampLayout))
	doc.pdf.Ln(4)

	doc.tableHeader("Subscription", "Monthly cost")
	for _, item := range p.Subscriptions {
		doc.tableRow(item.Name, money(r.currency, item.Price), false)
	}
	if p.CancelledTotal > 0 {
		doc.tableRow("Cancelled subscriptions", money(r.currency, p.CancelledTotal), false)
	}
	doc.tableRow("Grand total", money(r.currency, p.GrandTotal), true)
	doc.tableRow("Monthly budget", money(r.currency, p.Budget), false)

	if p.Note != "" {
		doc.pdf.Ln(4)
		doc.line(p.Note)
	}

	data, err := doc.bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// RenderYearly формирует годовой отчёт.
func (r *PDF) RenderYearly(ctx context.Context, p models.YearlyPayload) ([]byte, error) {
	const op = "render.PDF.RenderYearly"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	year := strconv.Itoa(p.Year)
	doc := newPDFDoc("Yearly report " + year)
	doc.pdf.SetCreationDate(p.GeneratedAt)
	doc.heading("Yearly subscription report: " + year)
	doc.line("User: " + p.Username)
	doc.line("Generated: " + p.GeneratedAt.Format(timestampLayout))
	doc.pdf.Ln(4)

	doc.tableHeader("Month", "Total")
	for _, row := range p.MonthlyReports {
		doc.tableRow(row.Month.String(), money(r.currency, row.TotalAmount), false)
	}
	doc.tableRow("Grand total", money(r.currency, p.GrandTotal), true)
	doc.tableRow("Yearly budget", money(r.currency, p.YearlyBudgetAmount), false)

	if p.Note != "" {
		doc.pdf.Ln(4)
		doc.line(p.Note)
	}

	data, err := doc.bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}
