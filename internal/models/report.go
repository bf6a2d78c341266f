package models

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/month"
)

// ReportKind вид отчёта.
type ReportKind int

// Виды отчётов.
const (
	ReportMonthly ReportKind = iota + 1
	ReportYearly
)

func (k ReportKind) String() string {
	switch k {
	case ReportMonthly:
		return "monthly"
	case ReportYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// Допустимый диапазон лет в отчётах.
const (
	MinReportYear = 2000
	MaxReportYear = 2100
)

// ErrReportDataSet повторная запись содержимого уже сформированного отчёта.
var ErrReportDataSet = errors.New("report data is already set")

// MonthTotal строка годового отчёта.
type MonthTotal struct {
	Month       time.Month `json:"month"`
	TotalAmount float64    `json:"total_amount"`
}

// Report общая часть месячного и годового отчётов. Month заполнен только
// у месячного отчёта, Months только у годового.
type Report struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Kind        ReportKind   `json:"kind"`
	GeneratedAt time.Time    `json:"generated_at"`
	TotalAmount float64      `json:"total_amount"`
	Year        int          `json:"year"`
	Month       time.Month   `json:"month,omitempty"`
	Months      []MonthTotal `json:"months,omitempty"`
	Data        []byte       `json:"-"`
}

// NewMonthlyReport создаёт месячный отчёт за месяц monthName года year.
func NewMonthlyReport(id, username, monthName string, year int, total float64, generatedAt time.Time) (*Report, error) {
	name, err := parseUsername(username)
	if err != nil {
		return nil, err
	}
	m, err := month.ParseName(monthName)
	if err != nil {
		return nil, invalid("month", monthName, "expected an English month name")
	}
	if err := checkYear(year); err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, invalid("total_amount", strconv.FormatFloat(total, 'f', 2, 64), "must not be negative")
	}
	return &Report{
		ID:          id,
		Username:    name,
		Kind:        ReportMonthly,
		GeneratedAt: generatedAt,
		TotalAmount: total,
		Year:        year,
		Month:       m,
	}, nil
}

// NewYearlyReport создаёт годовой отчёт; итог равен сумме строк.
func NewYearlyReport(id, username string, year int, rows []MonthTotal, generatedAt time.Time) (*Report, error) {
	name, err := parseUsername(username)
	if err != nil {
		return nil, err
	}
	if err := checkYear(year); err != nil {
		return nil, err
	}
	sum := decimal.Zero
	for _, r := range rows {
		if r.Month < time.January || r.Month > time.December {
			return nil, invalid("month", strconv.Itoa(int(r.Month)), "month out of range")
		}
		if r.TotalAmount < 0 {
			return nil, invalid("total_amount", strconv.FormatFloat(r.TotalAmount, 'f', 2, 64), "must not be negative")
		}
		sum = sum.Add(decimal.NewFromFloat(r.TotalAmount))
	}
	return &Report{
		ID:          id,
		Username:    name,
		Kind:        ReportYearly,
		GeneratedAt: generatedAt,
		TotalAmount: sum.Round(2).InexactFloat64(),
		Year:        year,
		Months:      append([]MonthTotal(nil), rows...),
	}, nil
}

// SetData сохраняет содержимое сформированного документа. Допускается один раз.
func (r *Report) SetData(data []byte) error {
	if r.Data != nil {
		return ErrReportDataSet
	}
	if len(data) == 0 {
		return invalid("report_data", "", "must not be empty")
	}
	r.Data = data
	return nil
}

// Period подпись периода: "September 2026" или "2026".
func (r *Report) Period() string {
	if r.Kind == ReportMonthly {
		return MonthlyPeriodLabel(r.Month, r.Year)
	}
	return strconv.Itoa(r.Year)
}

// MonthlyPeriodLabel подпись месячного периода.
func MonthlyPeriodLabel(m time.Month, year int) string {
	return m.String() + " " + strconv.Itoa(year)
}

func checkYear(year int) error {
	if year < MinReportYear || year > MaxReportYear {
		return invalid("year", strconv.Itoa(year), "must be between 2000 and 2100")
	}
	return nil
}
