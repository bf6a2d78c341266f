package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout формат дат во внешнем представлении (DD/MM/YYYY).
const DateLayout = "02/01/2006"

var (
	validate = validator.New()
	titler   = cases.Title(language.English)

	lettersAndSpaces = regexp.MustCompile(`^[A-Za-z ]+$`)
	alphanumeric     = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	emailShape       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)
	fractionalAmount = regexp.MustCompile(`^\d+\.\d+$`)
	dayMonthPattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
)

// titleCase приводит строку к виду "Netflix Premium", схлопывая лишние пробелы.
func titleCase(s string) string {
	return titler.String(strings.Join(strings.Fields(s), " "))
}

func parseLabel(field, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid(field, raw, "must not be empty")
	}
	if !lettersAndSpaces.MatchString(trimmed) {
		return "", invalid(field, raw, "only letters and spaces are allowed")
	}
	return titleCase(trimmed), nil
}

func parseName(field, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid(field, raw, "must not be empty")
	}
	return titleCase(trimmed), nil
}

// parseAmount разбирает денежную сумму: обязательна дробная часть ("9.99", "10.0"),
// целое "10" отклоняется. Результат округляется до копеек.
func parseAmount(field, raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if !fractionalAmount.MatchString(trimmed) {
		return 0, invalid(field, raw, "must be a decimal number with a fractional part, e.g. 9.99")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, invalid(field, raw, err.Error())
	}
	return d.Round(2).InexactFloat64(), nil
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, invalid(field, raw, "expected DD/MM/YYYY")
	}
	return t, nil
}

func parseEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if err := validate.Var(trimmed, "required,email"); err != nil {
		return "", invalid("email", raw, "expected local@domain.tld")
	}
	if !emailShape.MatchString(trimmed) {
		return "", invalid("email", raw, "expected local@domain.tld")
	}
	return strings.ToLower(trimmed), nil
}

func parseUsername(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !alphanumeric.MatchString(trimmed) {
		return "", invalid("username", raw, "only letters and digits are allowed")
	}
	return trimmed, nil
}
