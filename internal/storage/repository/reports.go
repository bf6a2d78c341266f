package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const reportColumns = `id, username, kind, year, month, total_amount, months, report_data, generated_at`

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r      models.Report
		kind   string
		month  int
		total  decimal.Decimal
		months []byte
	)
	if err := row.Scan(&r.ID, &r.Username, &kind, &r.Year, &month, &total, &months, &r.Data, &r.GeneratedAt); err != nil {
		return nil, err
	}
	switch kind {
	case models.ReportMonthly.String():
		r.Kind = models.ReportMonthly
		r.Month = time.Month(month)
	case models.ReportYearly.String():
		r.Kind = models.ReportYearly
	default:
		return nil, fmt.Errorf("unknown report kind %q: %w", kind, models.ErrDataConsistency)
	}
	if len(months) > 0 {
		if err := json.Unmarshal(months, &r.Months); err != nil {
			return nil, err
		}
	}
	r.TotalAmount = total.Round(2).InexactFloat64()
	r.GeneratedAt = r.GeneratedAt.UTC()
	return &r, nil
}

// SaveReport сохраняет отчёт, если за его период отчёта ещё нет. Возвращает
// false, если отчёт за период уже сохранён (например, параллельным запуском).
func (s *Storage) SaveReport(ctx context.Context, r *models.Report) (bool, error) {
	const op = "storage.SaveReport"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var months []byte
	if r.Kind == models.ReportYearly {
		var err error
		months, err = json.Marshal(r.Months)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `INSERT INTO reports (` + reportColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT ON CONSTRAINT ux_reports_period DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		r.ID, r.Username, r.Kind.String(), r.Year, int(r.Month),
		decimal.NewFromFloat(r.TotalAmount).Round(2), months, r.Data, r.GeneratedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// GetMonthlyReport возвращает месячный отчёт пользователя за период.
func (s *Storage) GetMonthlyReport(ctx context.Context, username string, month time.Month, year int) (*models.Report, error) {
	return s.getReport(ctx, "storage.GetMonthlyReport", username, models.ReportMonthly, year, int(month))
}

// GetYearlyReport возвращает годовой отчёт пользователя за год.
func (s *Storage) GetYearlyReport(ctx context.Context, username string, year int) (*models.Report, error) {
	return s.getReport(ctx, "storage.GetYearlyReport", username, models.ReportYearly, year, 0)
}

func (s *Storage) getReport(ctx context.Context, op, username string, kind models.ReportKind, year, month int) (*models.Report, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + reportColumns + `
			  FROM reports
			  WHERE username = $1 AND kind = $2 AND year = $3 AND month = $4`
	r, err := scanReport(s.DB.QueryRowContext(ctx, query, username, kind.String(), year, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListMonthlyReports возвращает месячные отчёты пользователя за год по возрастанию месяца.
func (s *Storage) ListMonthlyReports(ctx context.Context, username string, year int) ([]*models.Report, error) {
	const op = "storage.ListMonthlyReports"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + reportColumns + `
			  FROM reports
			  WHERE username = $1 AND kind = $2 AND year = $3
			  ORDER BY month`
	rows, err := s.DB.QueryContext(ctx, query, username, models.ReportMonthly.String(), year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteReport удаляет отчёт по идентификатору.
func (s *Storage) DeleteReport(ctx context.Context, id string) error {
	const op = "storage.DeleteReport"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}
