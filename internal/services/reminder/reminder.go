// Package reminder вычисляет даты продления подписок и рассылает напоминания
// за LeadDays дней до продления, не чаще одного раза за цикл.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/month"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// LeadDays за сколько дней до продления отправляется напоминание.
const LeadDays = 3

// SchedulingError дата продления не существует в календаре, например 31 число
// в апреле или 29/02 в невисокосный год.
type SchedulingError struct {
	SubscriptionID string
	ServiceName    string
	Err            error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("cannot schedule renewal of %s (%s): %v", e.ServiceName, e.SubscriptionID, e.Err)
}

// Unwrap позволяет сопоставлять ошибку и с models.ErrScheduling, и с причиной.
func (e *SchedulingError) Unwrap() []error {
	return []error{models.ErrScheduling, e.Err}
}

// SchedulingErrors извлекает все SchedulingError из ошибки, в том числе объединённой errors.Join.
func SchedulingErrors(err error) []*SchedulingError {
	var result []*SchedulingError
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *SchedulingError:
			result = append(result, x)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return result
}

// NextRenewal ближайшая дата продления, не раньше today. Даты строятся строго:
// несуществующий день даёт ошибку, а не перенос на следующий месяц.
func NextRenewal(today time.Time, sub *models.Subscription) (time.Time, error) {
	today = month.Today(today)
	switch sub.BillingFrequency {
	case models.FrequencyMonthly:
		day := sub.RenewalDate.Day
		candidate, err := month.Date(today.Year(), today.Month(), day)
		if err != nil {
			return time.Time{}, err
		}
		if candidate.Before(today) {
			m, y := month.Next(today.Month(), today.Year())
			return month.Date(y, m, day)
		}
		return candidate, nil
	case models.FrequencyYearly:
		candidate, err := month.Date(today.Year(), sub.RenewalDate.Month, sub.RenewalDate.Day)
		if err != nil {
			return time.Time{}, err
		}
		if candidate.Before(today) {
			return month.Date(today.Year()+1, sub.RenewalDate.Month, sub.RenewalDate.Day)
		}
		return candidate, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported billing frequency %d", sub.BillingFrequency)
	}
}

// Repository хранилище подтверждений напоминаний.
type Repository interface {
	GetReminderAcks(ctx context.Context, username string) (map[string]bool, error)
	SetReminderAck(ctx context.Context, username, subscriptionID string, ack bool) error
}

// Publisher публикует уведомление о продлении.
type Publisher interface {
	Publish(message any) error
}

// Service рассылает напоминания о продлении подписок.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// CheckPaymentDate проверяет активные подписки пользователя на дату today.
// Возвращает отправленные напоминания. Ошибки отдельных подписок не прерывают
// проверку остальных и возвращаются объединёнными.
func (s *Service) CheckPaymentDate(ctx context.Context, user *models.User, today time.Time) ([]models.RenewalNotice, error) {
	const op = "reminder.CheckPaymentDate"
	log := s.log.With(slog.String("op", op), slog.String("username", user.Username))
	today = month.Today(today)

	acks, err := s.repo.GetReminderAcks(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	state, err := models.NewReminder(user, acks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrDataConsistency, err)
	}

	var (
		notices []models.RenewalNotice
		errs    []error
	)
	for _, sub := range user.Subscriptions {
		if !sub.Active {
			continue
		}
		if sub.BillingFrequency != models.FrequencyMonthly && sub.BillingFrequency != models.FrequencyYearly {
			continue
		}

		renewal, err := NextRenewal(today, sub)
		if err != nil {
			serr := &SchedulingError{SubscriptionID: sub.ID, ServiceName: sub.ServiceName, Err: err}
			log.Warn("cannot compute renewal date", slog.String("subscription_id", sub.ID), sl.Err(err))
			errs = append(errs, serr)
			continue
		}

		if !today.Before(renewal) && state.Acknowledged(sub.ServiceName) {
			if err := s.setAck(ctx, state, user.Username, sub, false); err != nil {
				errs = append(errs, err)
				continue
			}
		}

		if !today.Equal(renewal.AddDate(0, 0, -LeadDays)) || state.Acknowledged(sub.ServiceName) {
			continue
		}

		notice := models.RenewalNotice{
			Username:       user.Username,
			Email:          user.Email,
			SubscriptionID: sub.ID,
			ServiceName:    sub.ServiceName,
			RenewalDate:    renewal,
			Price:          sub.Price,
		}
		if err := s.publisher.Publish(notice); err != nil {
			log.Error("failed to publish renewal reminder", slog.String("subscription_id", sub.ID), sl.Err(err))
			errs = append(errs, fmt.Errorf("%s: %w: %w", op, models.ErrExternalService, err))
			continue
		}
		notices = append(notices, notice)
		if err := s.setAck(ctx, state, user.Username, sub, true); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info("renewal reminder sent",
			slog.String("service_name", sub.ServiceName),
			slog.String("renewal_date", renewal.Format(models.DateLayout)))
	}

	return notices, errors.Join(errs...)
}

func (s *Service) setAck(ctx context.Context, state *models.Reminder, username string, sub *models.Subscription, ack bool) error {
	const op = "reminder.setAck"
	if err := s.repo.SetReminderAck(ctx, username, sub.ID, ack); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := state.Set(sub.ServiceName, ack); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
