// Package month содержит календарные помощники: строгое построение дат,
// переход к предыдущему месяцу и разбор названий месяцев.
package month

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate возвращается, если такого дня нет в календаре (например, 31 апреля).
var ErrInvalidDate = errors.New("invalid calendar date")

// DaysIn возвращает количество дней в месяце с учётом високосных лет.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date строит дату без нормализации: в отличие от time.Date
// 31 февраля не превращается в 3 марта, а приводит к ошибке.
func Date(year int, m time.Month, day int) (time.Time, error) {
	if m < time.January || m > time.December {
		return time.Time{}, fmt.Errorf("%w: month %d", ErrInvalidDate, m)
	}
	if day < 1 || day > DaysIn(year, m) {
		return time.Time{}, fmt.Errorf("%w: %02d/%02d/%04d", ErrInvalidDate, day, m, year)
	}
	return time.Date(year, m, day, 0, 0, 0, 0, time.UTC), nil
}

// Today отбрасывает время суток и возвращает календарную дату момента t.
func Today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Previous возвращает месяц, предшествующий месяцу даты t, и его год
// (январь 2026 -> декабрь 2025).
func Previous(t time.Time) (time.Month, int) {
	if t.Month() == time.January {
		return time.December, t.Year() - 1
	}
	return t.Month() - 1, t.Year()
}

// Next возвращает месяц, следующий за m, и его год.
func Next(m time.Month, year int) (time.Month, int) {
	if m == time.December {
		return time.January, year + 1
	}
	return m + 1, year
}

// ParseName разбирает английское название месяца без учёта регистра.
func ParseName(name string) (time.Month, error) {
	trimmed := strings.TrimSpace(name)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), trimmed) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month name %q", name)
}
