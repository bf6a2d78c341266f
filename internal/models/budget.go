package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Имена полей бюджета. Производные поля доступны только на чтение.
const (
	FieldMonthlyBudgetAmount    = "monthly_budget_amount"
	FieldYearlyBudgetAmount     = "yearly_budget_amount"
	FieldTotalAmountPaidMonthly = "total_amount_paid_monthly"
	FieldTotalAmountPaidYearly  = "total_amount_paid_yearly"
	FieldOverTheLimit           = "over_the_limit"
)

// SubscriptionSource отдаёт актуальный список подписок владельца бюджета.
type SubscriptionSource interface {
	SubscriptionList() []*Subscription
}

// Totals агрегированные расходы по подпискам.
type Totals struct {
	Monthly float64 `json:"total_amount_paid_monthly"`
	Yearly  float64 `json:"total_amount_paid_yearly"`
}

// ComputeTotals считает расходы в месяц и в год. Учитываются все подписки,
// в том числе отменённые.
func ComputeTotals(subs []*Subscription) Totals {
	twelve := decimal.NewFromInt(12)
	monthly := decimal.Zero
	yearly := decimal.Zero
	for _, s := range subs {
		price := decimal.NewFromFloat(s.Price)
		switch s.BillingFrequency {
		case FrequencyMonthly:
			monthly = monthly.Add(price)
			yearly = yearly.Add(price.Mul(twelve))
		case FrequencyYearly:
			monthly = monthly.Add(price.Div(twelve))
			yearly = yearly.Add(price)
		}
	}
	return Totals{
		Monthly: monthly.Round(2).InexactFloat64(),
		Yearly:  yearly.Round(2).InexactFloat64(),
	}
}

// Budget месячный бюджет пользователя. Годовой бюджет, суммы расходов и
// признак превышения вычисляются при каждом чтении по подпискам владельца.
type Budget struct {
	ID                  string  `json:"id"`
	Username            string  `json:"username"`
	MonthlyBudgetAmount float64 `json:"monthly_budget_amount"`

	owner SubscriptionSource
}

// NewBudget создаёт бюджет из строкового значения суммы.
func NewBudget(id, username, amountRaw string, owner SubscriptionSource) (*Budget, error) {
	name, err := parseUsername(username)
	if err != nil {
		return nil, err
	}
	b := &Budget{ID: strings.TrimSpace(id), Username: name, owner: owner}
	if err := b.SetMonthlyBudgetAmount(amountRaw); err != nil {
		return nil, err
	}
	return b, nil
}

// SetMonthlyBudgetAmount задаёт положительную сумму с дробной частью.
func (b *Budget) SetMonthlyBudgetAmount(raw string) error {
	v, err := parseAmount(FieldMonthlyBudgetAmount, raw)
	if err != nil {
		return err
	}
	if v <= 0 {
		return invalid(FieldMonthlyBudgetAmount, raw, "must be positive")
	}
	b.MonthlyBudgetAmount = v
	return nil
}

// Bind привязывает бюджет к источнику подписок.
func (b *Budget) Bind(owner SubscriptionSource) {
	b.owner = owner
}

// ApplyUpdates меняет бюджет. Производные поля можно передать только пустыми,
// что просто запускает пересчёт; любое непустое значение отклоняется.
func (b *Budget) ApplyUpdates(fields map[string]string) error {
	next := *b
	for field, raw := range fields {
		switch field {
		case FieldMonthlyBudgetAmount:
			if err := next.SetMonthlyBudgetAmount(raw); err != nil {
				return err
			}
		case FieldYearlyBudgetAmount, FieldTotalAmountPaidMonthly, FieldTotalAmountPaidYearly, FieldOverTheLimit:
			if strings.TrimSpace(raw) != "" {
				return invalid(field, raw, "derived field is read-only")
			}
		default:
			return invalid(field, raw, "unknown budget field")
		}
	}
	*b = next
	return nil
}

// YearlyBudgetAmount всегда равен месячному бюджету, умноженному на 12.
func (b *Budget) YearlyBudgetAmount() float64 {
	return decimal.NewFromFloat(b.MonthlyBudgetAmount).Mul(decimal.NewFromInt(12)).Round(2).InexactFloat64()
}

// Recompute пересчитывает расходы по текущему списку подписок владельца.
func (b *Budget) Recompute() Totals {
	if b.owner == nil {
		return Totals{}
	}
	return ComputeTotals(b.owner.SubscriptionList())
}

// TotalAmountPaidMonthly расходы в месяц.
func (b *Budget) TotalAmountPaidMonthly() float64 {
	return b.Recompute().Monthly
}

// TotalAmountPaidYearly расходы в год.
func (b *Budget) TotalAmountPaidYearly() float64 {
	return b.Recompute().Yearly
}

// OverTheLimit сообщает, превышен ли месячный или годовой бюджет.
func (b *Budget) OverTheLimit() bool {
	t := b.Recompute()
	return t.Monthly > b.MonthlyBudgetAmount || t.Yearly > b.YearlyBudgetAmount()
}
