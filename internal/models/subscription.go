// Package models содержит доменные сущности трекера подписок: пользователя,
// подписку, бюджет, отчёты и напоминания. Все значения проходят проверку
// при создании и изменении, поэтому экземпляр никогда не хранит сырой ввод.
package models

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/month"
)

// BillingFrequency периодичность списания.
type BillingFrequency int

// Поддерживаемые периодичности.
const (
	FrequencyMonthly BillingFrequency = iota + 1
	FrequencyYearly
)

func (f BillingFrequency) String() string {
	switch f {
	case FrequencyMonthly:
		return "Monthly"
	case FrequencyYearly:
		return "Yearly"
	default:
		return "Unknown"
	}
}

// ParseBillingFrequency разбирает "Monthly"/"Yearly" без учёта регистра.
func ParseBillingFrequency(raw string) (BillingFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly":
		return FrequencyMonthly, nil
	case "yearly":
		return FrequencyYearly, nil
	default:
		return 0, invalid(FieldBillingFrequency, raw, "expected Monthly or Yearly")
	}
}

// ParseActiveStatus переводит "Active"/"Cancelled" в bool.
func ParseActiveStatus(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return true, nil
	case "cancelled", "canceled":
		return false, nil
	default:
		return false, invalid(FieldActiveStatus, raw, "expected Active or Cancelled")
	}
}

// FormatActiveStatus обратное преобразование для ParseActiveStatus.
func FormatActiveStatus(active bool) string {
	if active {
		return "Active"
	}
	return "Cancelled"
}

// ParseAutoRenewal переводит "Yes"/"No" в bool.
func ParseAutoRenewal(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, invalid(FieldAutoRenewal, raw, "expected Yes or No")
	}
}

// FormatAutoRenewal обратное преобразование для ParseAutoRenewal.
func FormatAutoRenewal(auto bool) string {
	if auto {
		return "Yes"
	}
	return "No"
}

// RenewalDate дата продления. Для ежемесячных подписок задан только день (1–31),
// для ежегодных дополнительно месяц.
type RenewalDate struct {
	Day   int        `json:"day"`
	Month time.Month `json:"month,omitempty"`
}

// String возвращает "15" для ежемесячной и "15/06" для ежегодной подписки.
func (r RenewalDate) String() string {
	if r.Month == 0 {
		return strconv.Itoa(r.Day)
	}
	return fmt.Sprintf("%02d/%02d", r.Day, int(r.Month))
}

// ParseRenewalDate разбирает дату продления в формате, зависящем от периодичности.
func ParseRenewalDate(freq BillingFrequency, raw string) (RenewalDate, error) {
	trimmed := strings.TrimSpace(raw)
	switch freq {
	case FrequencyMonthly:
		day, err := strconv.Atoi(trimmed)
		if err != nil || day < 1 || day > 31 {
			return RenewalDate{}, invalid(FieldRenewalDate, raw, "monthly renewal date must be a day between 1 and 31")
		}
		return RenewalDate{Day: day}, nil
	case FrequencyYearly:
		parts := dayMonthPattern.FindStringSubmatch(trimmed)
		if parts == nil {
			return RenewalDate{}, invalid(FieldRenewalDate, raw, "yearly renewal date must be DD/MM")
		}
		day, _ := strconv.Atoi(parts[1])
		m, _ := strconv.Atoi(parts[2])
		if m < 1 || m > 12 {
			return RenewalDate{}, invalid(FieldRenewalDate, raw, "month must be between 1 and 12")
		}
		// 29/02 допустимо: в невисокосный год планировщик сообщит об ошибке.
		if day < 1 || day > month.DaysIn(2024, time.Month(m)) {
			return RenewalDate{}, invalid(FieldRenewalDate, raw, "day does not exist in that month")
		}
		return RenewalDate{Day: day, Month: time.Month(m)}, nil
	default:
		return RenewalDate{}, invalid(FieldRenewalDate, raw, "unknown billing frequency")
	}
}

// Имена полей подписки, используемые в ApplyUpdates и сообщениях об ошибках.
const (
	FieldServiceType      = "service_type"
	FieldServiceName      = "service_name"
	FieldActiveStatus     = "active_status"
	FieldPrice            = "subscription_price"
	FieldBillingFrequency = "billing_frequency"
	FieldStartDate        = "start_date"
	FieldRenewalDate      = "renewal_date"
	FieldAutoRenewal      = "auto_renewal_status"
	FieldCategory         = "category"
	FieldPlanType         = "plan_type"
)

// Subscription подписка пользователя на сервис.
type Subscription struct {
	ID               string           `json:"id"`
	Username         string           `json:"username"`
	ServiceType      string           `json:"service_type"`
	ServiceName      string           `json:"service_name"`
	Category         string           `json:"category"`
	PlanType         string           `json:"plan_type"`
	Active           bool             `json:"active"`
	Price            float64          `json:"price"`
	BillingFrequency BillingFrequency `json:"billing_frequency"`
	StartDate        time.Time        `json:"start_date"`
	RenewalDate      RenewalDate      `json:"renewal_date"`
	AutoRenewal      bool             `json:"auto_renewal"`
}

// SubscriptionInput сырой ввод для создания подписки. Все значения строковые,
// как они приходят из формы или файла.
type SubscriptionInput struct {
	ID               string
	ServiceType      string
	ServiceName      string
	Category         string
	PlanType         string
	ActiveStatus     string
	Price            string
	BillingFrequency string
	StartDate        string
	RenewalDate      string
	AutoRenewal      string
}

// NewSubscription проверяет ввод и создаёт подписку. Если идентификатор не задан,
// он запрашивается у ids.
func NewSubscription(ctx context.Context, username string, in SubscriptionInput, ids IDSource) (*Subscription, error) {
	const op = "models.NewSubscription"

	owner, err := parseUsername(username)
	if err != nil {
		return nil, err
	}
	s := &Subscription{Username: owner}
	fields := map[string]string{
		FieldServiceType:  in.ServiceType,
		FieldServiceName:  in.ServiceName,
		FieldCategory:     in.Category,
		FieldPlanType:     in.PlanType,
		FieldActiveStatus: in.ActiveStatus,
		FieldPrice:        in.Price,
		FieldStartDate:    in.StartDate,
		FieldAutoRenewal:  in.AutoRenewal,
	}
	for _, field := range []string{FieldServiceType, FieldServiceName, FieldCategory, FieldPlanType,
		FieldActiveStatus, FieldPrice, FieldStartDate, FieldAutoRenewal} {
		if err := s.set(field, fields[field]); err != nil {
			return nil, err
		}
	}
	if err := s.SetBilling(in.BillingFrequency, in.RenewalDate); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ID) != "" {
		s.ID = strings.TrimSpace(in.ID)
		return s, nil
	}
	if ids == nil {
		return nil, fmt.Errorf("%s: no id source for new subscription", op)
	}
	id, err := ids.NextID(ctx, KindSubscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.ID = id
	return s, nil
}

// SetServiceType задаёт тип сервиса (только буквы и пробелы).
func (s *Subscription) SetServiceType(raw string) error { return s.set(FieldServiceType, raw) }

// SetServiceName задаёт название сервиса.
func (s *Subscription) SetServiceName(raw string) error { return s.set(FieldServiceName, raw) }

// SetCategory задаёт категорию.
func (s *Subscription) SetCategory(raw string) error { return s.set(FieldCategory, raw) }

// SetPlanType задаёт тариф.
func (s *Subscription) SetPlanType(raw string) error { return s.set(FieldPlanType, raw) }

// SetActiveStatus принимает "Active" или "Cancelled".
func (s *Subscription) SetActiveStatus(raw string) error { return s.set(FieldActiveStatus, raw) }

// SetPrice принимает цену с дробной частью, например "17.99".
func (s *Subscription) SetPrice(raw string) error { return s.set(FieldPrice, raw) }

// SetStartDate принимает дату в формате DD/MM/YYYY.
func (s *Subscription) SetStartDate(raw string) error { return s.set(FieldStartDate, raw) }

// SetAutoRenewal принимает "Yes" или "No".
func (s *Subscription) SetAutoRenewal(raw string) error { return s.set(FieldAutoRenewal, raw) }

// SetRenewalDate меняет дату продления, проверяя её по текущей периодичности.
func (s *Subscription) SetRenewalDate(raw string) error {
	r, err := ParseRenewalDate(s.BillingFrequency, raw)
	if err != nil {
		return err
	}
	s.RenewalDate = r
	return nil
}

// SetBilling меняет периодичность вместе с датой продления: форма даты
// зависит от периодичности, поэтому по отдельности их менять нельзя.
func (s *Subscription) SetBilling(frequencyRaw, renewalRaw string) error {
	freq, err := ParseBillingFrequency(frequencyRaw)
	if err != nil {
		return err
	}
	r, err := ParseRenewalDate(freq, renewalRaw)
	if err != nil {
		return err
	}
	s.BillingFrequency = freq
	s.RenewalDate = r
	return nil
}

// ApplyUpdates применяет набор изменений атомарно: либо все поля валидны
// и применяются, либо подписка остаётся прежней.
func (s *Subscription) ApplyUpdates(fields map[string]string) error {
	next := *s

	freqRaw, hasFreq := fields[FieldBillingFrequency]
	renewalRaw, hasRenewal := fields[FieldRenewalDate]
	switch {
	case hasFreq && hasRenewal:
		if err := next.SetBilling(freqRaw, renewalRaw); err != nil {
			return err
		}
	case hasFreq:
		freq, err := ParseBillingFrequency(freqRaw)
		if err != nil {
			return err
		}
		if freq != next.BillingFrequency {
			return invalid(FieldRenewalDate, "", "renewal_date must be supplied when billing_frequency changes")
		}
	case hasRenewal:
		if err := next.SetRenewalDate(renewalRaw); err != nil {
			return err
		}
	}

	for field, raw := range fields {
		if field == FieldBillingFrequency || field == FieldRenewalDate {
			continue
		}
		if err := next.set(field, raw); err != nil {
			return err
		}
	}
	*s = next
	return nil
}

// MonthlyEquivalent стоимость подписки в пересчёте на месяц.
func (s *Subscription) MonthlyEquivalent() float64 {
	if s.BillingFrequency == FrequencyYearly {
		return s.Price / 12
	}
	return s.Price
}

func (s *Subscription) set(field, raw string) error {
	switch field {
	case FieldServiceType:
		v, err := parseLabel(field, raw)
		if err != nil {
			return err
		}
		s.ServiceType = v
	case FieldCategory:
		v, err := parseLabel(field, raw)
		if err != nil {
			return err
		}
		s.Category = v
	case FieldPlanType:
		v, err := parseLabel(field, raw)
		if err != nil {
			return err
		}
		s.PlanType = v
	case FieldServiceName:
		v, err := parseName(field, raw)
		if err != nil {
			return err
		}
		s.ServiceName = v
	case FieldActiveStatus:
		v, err := ParseActiveStatus(raw)
		if err != nil {
			return err
		}
		s.Active = v
	case FieldPrice:
		v, err := parseAmount(field, raw)
		if err != nil {
			return err
		}
		s.Price = v
	case FieldStartDate:
		v, err := parseDate(field, raw)
		if err != nil {
			return err
		}
		s.StartDate = v
	case FieldAutoRenewal:
		v, err := ParseAutoRenewal(raw)
		if err != nil {
			return err
		}
		s.AutoRenewal = v
	case FieldRenewalDate:
		return s.SetRenewalDate(raw)
	default:
		return invalid(field, raw, "unknown subscription field")
	}
	return nil
}
