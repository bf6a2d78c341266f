package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ErrSubscriptionExists у пользователя уже есть подписка с таким названием.
var ErrSubscriptionExists = fmt.Errorf("subscription with this service name already exists: %w", models.ErrValidation)

const subscriptionColumns = `id, username, service_type, service_name, category, plan_type,
	is_active, price, billing_frequency, start_date, renewal_day, renewal_month, auto_renewal`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub          models.Subscription
		price        decimal.Decimal
		frequency    string
		renewalDay   int
		renewalMonth int
	)
	err := row.Scan(&sub.ID, &sub.Username, &sub.ServiceType, &sub.ServiceName, &sub.Category,
		&sub.PlanType, &sub.Active, &price, &frequency, &sub.StartDate, &renewalDay, &renewalMonth,
		&sub.AutoRenewal)
	if err != nil {
		return nil, err
	}
	freq, err := models.ParseBillingFrequency(frequency)
	if err != nil {
		return nil, err
	}
	sub.Price = price.Round(2).InexactFloat64()
	sub.BillingFrequency = freq
	sub.StartDate = sub.StartDate.UTC()
	sub.RenewalDate = models.RenewalDate{Day: renewalDay, Month: time.Month(renewalMonth)}
	return &sub, nil
}

func subscriptionArgs(sub *models.Subscription) []any {
	return []any{
		sub.ID, sub.Username, sub.ServiceType, sub.ServiceName, sub.Category, sub.PlanType,
		sub.Active, decimal.NewFromFloat(sub.Price).Round(2), sub.BillingFrequency.String(),
		sub.StartDate, sub.RenewalDate.Day, int(sub.RenewalDate.Month), sub.AutoRenewal,
	}
}

// CreateSubscription сохраняет подписку в конец списка пользователя.
func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO subscriptions (` + subscriptionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := s.DB.ExecContext(ctx, query, subscriptionArgs(sub)...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrSubscriptionExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscription возвращает подписку по идентификатору.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// UpdateSubscription перезаписывает все поля подписки, кроме владельца.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.UpdateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE subscriptions
			  SET service_type = $3, service_name = $4, category = $5, plan_type = $6,
			      is_active = $7, price = $8, billing_frequency = $9, start_date = $10,
			      renewal_day = $11, renewal_month = $12, auto_renewal = $13
			  WHERE id = $1 AND username = $2`
	res, err := s.DB.ExecContext(ctx, query, subscriptionArgs(sub)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrSubscriptionExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}

// DeleteSubscription удаляет подписку и её состояние напоминаний.
func (s *Storage) DeleteSubscription(ctx context.Context, id string) error {
	const op = "storage.DeleteSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}

// ListSubscriptions возвращает подписки пользователя в порядке добавления.
func (s *Storage) ListSubscriptions(ctx context.Context, username string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE username = $1
			  ORDER BY seq`
	rows, err := s.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
