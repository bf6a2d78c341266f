package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ErrBudgetExists у пользователя уже есть бюджет.
var ErrBudgetExists = fmt.Errorf("budget already exists: %w", models.ErrValidation)

// CreateBudget сохраняет бюджет пользователя. У пользователя не больше одного бюджета.
func (s *Storage) CreateBudget(ctx context.Context, budget *models.Budget) error {
	const op = "storage.CreateBudget"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO budgets (id, username, monthly_budget_amount) VALUES ($1, $2, $3)`
	_, err := s.DB.ExecContext(ctx, query, budget.ID, budget.Username,
		decimal.NewFromFloat(budget.MonthlyBudgetAmount).Round(2))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrBudgetExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetBudget возвращает бюджет пользователя. Бюджет не привязан к подпискам,
// это делает User.AttachBudget.
func (s *Storage) GetBudget(ctx context.Context, username string) (*models.Budget, error) {
	const op = "storage.GetBudget"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, username, monthly_budget_amount FROM budgets WHERE username = $1`
	var (
		b      models.Budget
		amount decimal.Decimal
	)
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&b.ID, &b.Username, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.MonthlyBudgetAmount = amount.Round(2).InexactFloat64()
	return &b, nil
}

// UpdateBudget меняет сумму бюджета пользователя.
func (s *Storage) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	const op = "storage.UpdateBudget"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE budgets SET monthly_budget_amount = $1 WHERE username = $2`
	res, err := s.DB.ExecContext(ctx, query, decimal.NewFromFloat(budget.MonthlyBudgetAmount).Round(2), budget.Username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}

// DeleteBudget удаляет бюджет пользователя.
func (s *Storage) DeleteBudget(ctx context.Context, username string) error {
	const op = "storage.DeleteBudget"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM budgets WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}
