package models

import "time"

// LineItem строка месячного отчёта: сервис и его стоимость в месяц.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// MonthlyPayload данные для формирования месячного отчёта.
type MonthlyPayload struct {
	Username      string     `json:"username"`
	Subscriptions []LineItem `json:"subscriptions"`
	// CancelledTotal стоимость отменённых подписок, которые не попали в список,
	// но учтены в GrandTotal.
	CancelledTotal float64   `json:"cancelled_total"`
	Period         string    `json:"period"`
	GeneratedAt    time.Time `json:"generated_at"`
	GrandTotal     float64   `json:"grand_total"`
	Budget         float64   `json:"budget"`
	Note           string    `json:"note"`
}

// YearlyPayload данные для формирования годового отчёта.
type YearlyPayload struct {
	Username           string       `json:"username"`
	Year               int          `json:"year"`
	MonthlyReports     []MonthTotal `json:"monthly_reports"`
	YearlyBudgetAmount float64      `json:"yearly_budget_amount"`
	GrandTotal         float64      `json:"grand_total"`
	Note               string       `json:"note"`
	Incomplete         bool         `json:"incomplete"`
	GeneratedAt        time.Time    `json:"generated_at"`
}

// ReportEmail письмо с вложенным отчётом.
type ReportEmail struct {
	Document    []byte
	Filename    string
	ContentType string
	To          string
	Subject     string
	Username    string
	Body        string
}

// RenewalNotice напоминание о скором продлении подписки.
type RenewalNotice struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	SubscriptionID string    `json:"subscription_id"`
	ServiceName    string    `json:"service_name"`
	RenewalDate    time.Time `json:"renewal_date"`
	Price          float64   `json:"price"`
}
