// Package report формирует месячные и годовые отчёты о расходах на подписки,
// отправляет их пользователю и сохраняет. Каждый период формируется один раз.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/month"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/render"
)

// Repository хранилище отчётов.
type Repository interface {
	GetMonthlyReport(ctx context.Context, username string, m time.Month, year int) (*models.Report, error)
	GetYearlyReport(ctx context.Context, username string, year int) (*models.Report, error)
	ListMonthlyReports(ctx context.Context, username string, year int) ([]*models.Report, error)
	SaveReport(ctx context.Context, r *models.Report) (bool, error)
	NextID(ctx context.Context, kind models.EntityKind) (string, error)
}

// Mailer доставляет письмо с отчётом.
type Mailer interface {
	SendReport(ctx context.Context, email models.ReportEmail) error
}

// Service оркестратор отчётов.
type Service struct {
	repo     Repository
	renderer render.Renderer
	mailer   Mailer
	currency string
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, renderer render.Renderer, mailer Mailer, currency string, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		renderer: renderer,
		mailer:   mailer,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

// EnsureMonthlyReport формирует отчёт за месяц, предшествующий today, если его ещё нет.
// Возвращает true, если отчёт был сформирован и сохранён этим вызовом.
// Ошибка рендера или отправки ничего не сохраняет: следующий запуск повторит попытку.
func (s *Service) EnsureMonthlyReport(ctx context.Context, user *models.User, today time.Time) (bool, error) {
	const op = "report.EnsureMonthlyReport"
	m, year := month.Previous(today)
	log := s.log.With(
		slog.String("op", op),
		slog.String("username", user.Username),
		slog.String("period", models.MonthlyPeriodLabel(m, year)),
	)

	existing, err := s.repo.GetMonthlyReport(ctx, user.Username, m, year)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		log.Debug("monthly report already exists", slog.String("report_id", existing.ID))
		return false, nil
	}

	payload := BuildMonthlyPayload(user, m, year, s.now().UTC(), s.currency)
	rep, err := models.NewMonthlyReport("", user.Username, m.String(), year, payload.GrandTotal, payload.GeneratedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := s.renderer.RenderMonthly(ctx, payload)
	if err != nil {
		return false, fmt.Errorf("%s: render: %w: %w", op, models.ErrExternalService, err)
	}

	email := models.ReportEmail{
		Document:    doc,
		Filename:    render.Filename(s.renderer, user.Username, models.ReportMonthly, year, m),
		ContentType: s.renderer.ContentType(),
		To:          user.Email,
		Subject:     "Subscription report for " + payload.Period,
		Username:    user.Username,
		Body:        render.MonthlySummary(s.currency, payload),
	}
	return s.deliverAndSave(ctx, log, op, rep, doc, email)
}

// EnsureYearlyReport формирует отчёт за год, предшествующий today, из сохранённых
// месячных отчётов. Если месячных отчётов нет совсем, возвращает ErrDataConsistency.
// Если их меньше двенадцати, суммирует имеющиеся и помечает отчёт неполным.
func (s *Service) EnsureYearlyReport(ctx context.Context, user *models.User, today time.Time) (bool, error) {
	const op = "report.EnsureYearlyReport"
	year := today.Year() - 1
	log := s.log.With(
		slog.String("op", op),
		slog.String("username", user.Username),
		slog.Int("year", year),
	)

	existing, err := s.repo.GetYearlyReport(ctx, user.Username, year)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		log.Debug("yearly report already exists", slog.String("report_id", existing.ID))
		return false, nil
	}

	monthly, err := s.repo.ListMonthlyReports(ctx, user.Username, year)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if len(monthly) == 0 {
		return false, fmt.Errorf("%s: %w: no monthly reports for %d", op, models.ErrDataConsistency, year)
	}

	rows := make([]models.MonthTotal, 0, len(monthly))
	for _, r := range monthly {
		rows = append(rows, models.MonthTotal{Month: r.Month, TotalAmount: r.TotalAmount})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })

	payload := BuildYearlyPayload(user, year, rows, s.now().UTC(), s.currency)
	if payload.Incomplete {
		log.Warn("yearly report is built from incomplete data",
			slog.Int("monthly_reports", len(rows)),
			slog.Any("missing", MissingMonths(rows)))
	}

	rep, err := models.NewYearlyReport("", user.Username, year, rows, payload.GeneratedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := s.renderer.RenderYearly(ctx, payload)
	if err != nil {
		return false, fmt.Errorf("%s: render: %w: %w", op, models.ErrExternalService, err)
	}

	email := models.ReportEmail{
		Document:    doc,
		Filename:    render.Filename(s.renderer, user.Username, models.ReportYearly, year, 0),
		ContentType: s.renderer.ContentType(),
		To:          user.Email,
		Subject:     "Subscription report for " + strconv.Itoa(year),
		Username:    user.Username,
		Body:        render.YearlySummary(s.currency, payload),
	}
	return s.deliverAndSave(ctx, log, op, rep, doc, email)
}

func (s *Service) deliverAndSave(ctx context.Context, log *slog.Logger, op string, rep *models.Report, doc []byte, email models.ReportEmail) (bool, error) {
	if err := rep.SetData(doc); err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, models.ErrExternalService, err)
	}
	if err := s.mailer.SendReport(ctx, email); err != nil {
		return false, fmt.Errorf("%s: email: %w: %w", op, models.ErrExternalService, err)
	}

	kind := models.KindMonthlyReport
	if rep.Kind == models.ReportYearly {
		kind = models.KindYearlyReport
	}
	id, err := s.repo.NextID(ctx, kind)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rep.ID = id

	inserted, err := s.repo.SaveReport(ctx, rep)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !inserted {
		log.Warn("report for this period was saved by another run", slog.String("report_id", id))
		return false, nil
	}
	log.Info("report generated", slog.String("report_id", id), slog.Float64("total", rep.TotalAmount))
	return true, nil
}
