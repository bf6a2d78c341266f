package render

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// MonthlySummary текстовая таблица месячного отчёта для тела письма.
func MonthlySummary(currency string, p models.MonthlyPayload) string {
	t := newTable("Subscriptions for " + p.Period)
	t.AppendHeader(table.Row{"Subscription", "Monthly cost"})
	for _, item := range p.Subscriptions {
		t.AppendRow(table.Row{item.Name, money(currency, item.Price)})
	}
	if p.CancelledTotal > 0 {
		t.AppendRow(table.Row{"Cancelled subscriptions", money(currency, p.CancelledTotal)})
	}
	t.AppendFooter(table.Row{"Grand total", money(currency, p.GrandTotal)})
	t.AppendFooter(table.Row{"Monthly budget", money(currency, p.Budget)})
	return withNote(t.Render(), p.Note)
}

// YearlySummary текстовая таблица годового отчёта для тела письма.
func YearlySummary(currency string, p models.YearlyPayload) string {
	t := newTable("Subscriptions in " + strconv.Itoa(p.Year))
	t.AppendHeader(table.Row{"Month", "Total"})
	for _, row := range p.MonthlyReports {
		t.AppendRow(table.Row{row.Month.String(), money(currency, row.TotalAmount)})
	}
	t.AppendFooter(table.Row{"Grand total", money(currency, p.GrandTotal)})
	t.AppendFooter(table.Row{"Yearly budget", money(currency, p.YearlyBudgetAmount)})
	return withNote(t.Render(), p.Note)
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return t
}

func withNote(body, note string) string {
	if note == "" {
		return body + "\n"
	}
	return body + "\n\n" + note + "\n"
}
