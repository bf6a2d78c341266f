// Package budget содержит HTTP-обработчики бюджета пользователя и общее
// JSON-представление бюджета с производными полями.
package budget

import "github.com/magabrotheeeer/subscription-tracker/internal/models"

// View JSON-представление бюджета вместе с пересчитанными расходами.
type View struct {
	ID                     string  `json:"id"`
	Username               string  `json:"username"`
	MonthlyBudgetAmount    float64 `json:"monthly_budget_amount"`
	YearlyBudgetAmount     float64 `json:"yearly_budget_amount"`
	TotalAmountPaidMonthly float64 `json:"total_amount_paid_monthly"`
	TotalAmountPaidYearly  float64 `json:"total_amount_paid_yearly"`
	OverTheLimit           bool    `json:"over_the_limit"`
}

// NewView пересчитывает производные поля один раз и собирает представление.
func NewView(b *models.Budget) View {
	totals := b.Recompute()
	yearly := b.YearlyBudgetAmount()
	return View{
		ID:                     b.ID,
		Username:               b.Username,
		MonthlyBudgetAmount:    b.MonthlyBudgetAmount,
		YearlyBudgetAmount:     yearly,
		TotalAmountPaidMonthly: totals.Monthly,
		TotalAmountPaidYearly:  totals.Yearly,
		OverTheLimit:           totals.Monthly > b.MonthlyBudgetAmount || totals.Yearly > yearly,
	}
}
