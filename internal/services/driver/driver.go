// Package driver обходит всех пользователей по расписанию: рассылает
// напоминания о продлении, формирует месячный отчёт и, в заданный месяц,
// годовой. Ошибка или паника одного пользователя не прерывает обход.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/month"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
)

// Users источник пользователей.
type Users interface {
	ListUsernames(ctx context.Context) ([]string, error)
	LoadUser(ctx context.Context, username string) (*models.User, error)
}

// Reminders проверка дат продления.
type Reminders interface {
	CheckPaymentDate(ctx context.Context, user *models.User, today time.Time) ([]models.RenewalNotice, error)
}

// Reports формирование отчётов.
type Reports interface {
	EnsureMonthlyReport(ctx context.Context, user *models.User, today time.Time) (bool, error)
	EnsureYearlyReport(ctx context.Context, user *models.User, today time.Time) (bool, error)
}

// Summary итог одного прохода.
type Summary struct {
	RunID            string
	Users            int
	Failed           int
	RemindersQueued  int
	SchedulingErrors int
	MonthlyReports   int
	YearlyReports    int
}

// Driver периодический обработчик пользователей.
type Driver struct {
	users       Users
	reminders   Reminders
	reports     Reports
	metrics     *metrics.Metrics
	yearlyMonth time.Month
	log         *slog.Logger
	now         func() time.Time
}

// New создает Driver. Годовой отчёт формируется, когда текущий месяц равен yearlyMonth.
func New(users Users, reminders Reminders, reports Reports, m *metrics.Metrics, yearlyMonth time.Month, log *slog.Logger) *Driver {
	if m == nil {
		m = metrics.New()
	}
	return &Driver{
		users:       users,
		reminders:   reminders,
		reports:     reports,
		metrics:     m,
		yearlyMonth: yearlyMonth,
		log:         log,
		now:         time.Now,
	}
}

// Run выполняет проход сразу и затем каждые interval, пока не отменён ctx.
func (d *Driver) Run(ctx context.Context, interval time.Duration) error {
	d.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("driver stopped")
			return nil
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	if _, err := d.RunOnce(ctx, d.now()); err != nil {
		d.log.Error("scheduler run failed", sl.Err(err))
	}
}

// RunOnce обрабатывает всех пользователей на дату today. Ошибка возвращается
// только если не удалось получить список пользователей.
func (d *Driver) RunOnce(ctx context.Context, today time.Time) (Summary, error) {
	const op = "driver.RunOnce"
	start := time.Now()
	today = month.Today(today)
	summary := Summary{RunID: uuid.NewString()}
	log := d.log.With(slog.String("op", op), slog.String("run_id", summary.RunID))

	usernames, err := d.users.ListUsernames(ctx)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("scheduler run started",
		slog.String("date", today.Format(models.DateLayout)),
		slog.Int("users", len(usernames)))

	for _, username := range usernames {
		if ctx.Err() != nil {
			log.Warn("scheduler run interrupted", sl.Err(ctx.Err()))
			break
		}
		summary.Users++
		if err := d.processUser(ctx, log, username, today, &summary); err != nil {
			summary.Failed++
			d.metrics.UserFailures.Inc()
			log.Error("failed to process user", slog.String("username", username), sl.Err(err))
		}
	}

	d.metrics.Runs.Inc()
	d.metrics.RunDuration.Observe(time.Since(start).Seconds())
	log.Info("scheduler run finished",
		slog.Int("users", summary.Users),
		slog.Int("failed", summary.Failed),
		slog.Int("reminders", summary.RemindersQueued),
		slog.Int("scheduling_errors", summary.SchedulingErrors),
		slog.Int("monthly_reports", summary.MonthlyReports),
		slog.Int("yearly_reports", summary.YearlyReports))
	return summary, nil
}

// processUser выполняет независимые шаги для одного пользователя и
// объединяет их ошибки. Ошибки планирования отдельных подписок не считаются
// отказом пользователя.
func (d *Driver) processUser(ctx context.Context, log *slog.Logger, username string, today time.Time, summary *Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", username, r)
		}
	}()

	user, err := d.users.LoadUser(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", username, models.ErrNotFound)
	}

	var errs []error

	notices, err := d.reminders.CheckPaymentDate(ctx, user, today)
	summary.RemindersQueued += len(notices)
	d.metrics.RemindersQueued.Add(float64(len(notices)))
	scheduling, other := splitReminderErr(err)
	summary.SchedulingErrors += len(scheduling)
	d.metrics.SchedulingErrors.Add(float64(len(scheduling)))
	for _, serr := range scheduling {
		log.Warn("subscription skipped", slog.String("username", username), sl.Err(serr))
	}
	errs = append(errs, other...)

	created, monthlyErr := d.reports.EnsureMonthlyReport(ctx, user, today)
	if monthlyErr != nil {
		errs = append(errs, monthlyErr)
	} else if created {
		summary.MonthlyReports++
		d.metrics.ReportsGenerated.WithLabelValues(models.ReportMonthly.String()).Inc()
	}

	// Годовой отчёт не пересобирается, поэтому без отчёта за последний месяц
	// года он откладывается до следующего прохода.
	if today.Month() == d.yearlyMonth && monthlyErr != nil {
		log.Warn("yearly report postponed until the monthly report succeeds", slog.String("username", username))
	} else if today.Month() == d.yearlyMonth {
		created, err := d.reports.EnsureYearlyReport(ctx, user, today)
		if err != nil {
			errs = append(errs, err)
		} else if created {
			summary.YearlyReports++
			d.metrics.ReportsGenerated.WithLabelValues(models.ReportYearly.String()).Inc()
		}
	}

	return errors.Join(errs...)
}

func splitReminderErr(err error) ([]*reminder.SchedulingError, []error) {
	if err == nil {
		return nil, nil
	}
	parts := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts = joined.Unwrap()
	}

	var (
		scheduling []*reminder.SchedulingError
		other      []error
	)
	for _, part := range parts {
		var serr *reminder.SchedulingError
		if errors.As(part, &serr) {
			scheduling = append(scheduling, serr)
			continue
		}
		other = append(other, part)
	}
	return scheduling, other
}
