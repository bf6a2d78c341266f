package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// NoBudgetNote примечание для пользователя без бюджета.
const NoBudgetNote = "No budget is set, spending is not compared against a limit."

// BuildMonthlyPayload собирает данные месячного отчёта. В списке только активные
// подписки; отменённые попадают в CancelledTotal, а GrandTotal равен месячному
// итогу бюджета по всем подпискам.
func BuildMonthlyPayload(user *models.User, m time.Month, year int, generatedAt time.Time, currency string) models.MonthlyPayload {
	p := models.MonthlyPayload{
		Username:    user.Username,
		Period:      models.MonthlyPeriodLabel(m, year),
		GeneratedAt: generatedAt,
		GrandTotal:  user.Totals().Monthly,
	}

	cancelled := decimal.Zero
	for _, sub := range user.SubscriptionList() {
		price := decimal.NewFromFloat(sub.MonthlyEquivalent()).Round(2)
		if !sub.Active {
			cancelled = cancelled.Add(price)
			continue
		}
		p.Subscriptions = append(p.Subscriptions, models.LineItem{
			Name:  sub.ServiceName,
			Price: price.InexactFloat64(),
		})
	}
	p.CancelledTotal = cancelled.InexactFloat64()

	if user.Budget == nil {
		p.Note = NoBudgetNote
		return p
	}
	p.Budget = user.Budget.MonthlyBudgetAmount
	p.Note = budgetNote("monthly", currency, p.GrandTotal, p.Budget)
	return p
}

// BuildYearlyPayload собирает данные годового отчёта по сохранённым месячным.
// Отсутствующие месяцы перечисляются в примечании и помечают отчёт неполным.
func BuildYearlyPayload(user *models.User, year int, rows []models.MonthTotal, generatedAt time.Time, currency string) models.YearlyPayload {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(decimal.NewFromFloat(r.TotalAmount))
	}
	p := models.YearlyPayload{
		Username:       user.Username,
		Year:           year,
		MonthlyReports: rows,
		GrandTotal:     total.Round(2).InexactFloat64(),
		GeneratedAt:    generatedAt,
	}

	if user.Budget == nil {
		p.Note = NoBudgetNote
	} else {
		p.YearlyBudgetAmount = user.Budget.YearlyBudgetAmount()
		p.Note = budgetNote("yearly", currency, p.GrandTotal, p.YearlyBudgetAmount)
	}

	if missing := MissingMonths(rows); len(missing) > 0 {
		p.Incomplete = true
		p.Note += " Missing monthly reports: " + strings.Join(missing, ", ") + "."
	}
	return p
}

// MissingMonths названия месяцев, для которых нет строки.
func MissingMonths(rows []models.MonthTotal) []string {
	present := make(map[time.Month]bool, len(rows))
	for _, r := range rows {
		present[r.Month] = true
	}
	var missing []string
	for m := time.January; m <= time.December; m++ {
		if !present[m] {
			missing = append(missing, m.String())
		}
	}
	return missing
}

func budgetNote(period, currency string, total, limit float64) string {
	spent := currency + decimal.NewFromFloat(total).StringFixed(2)
	ceiling := currency + decimal.NewFromFloat(limit).StringFixed(2)
	if total > limit {
		return fmt.Sprintf("Over budget: spending of %s exceeds the %s budget of %s.", spent, period, ceiling)
	}
	return fmt.Sprintf("Within budget: spending of %s fits the %s budget of %s.", spent, period, ceiling)
}
