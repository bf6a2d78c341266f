package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ErrUserExists пользователь с таким именем уже зарегистрирован.
var ErrUserExists = fmt.Errorf("user already exists: %w", models.ErrValidation)

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (username, email, password_hash, created_at)
			  VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает учётную запись без подписок и бюджета.
func (s *Storage) GetUser(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT username, email, password_hash, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// UpdateUser перезаписывает учётную запись username. Переименование каскадно
// переносится на подписки, бюджет, отчёты и напоминания.
func (s *Storage) UpdateUser(ctx context.Context, username string, user *models.User) error {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET username = $1, email = $2, password_hash = $3
			  WHERE username = $4`
	res, err := s.DB.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, username)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}

// DeleteUser удаляет пользователя вместе со всеми его данными.
func (s *Storage) DeleteUser(ctx context.Context, username string) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}

// ListUsernames возвращает имена всех пользователей в порядке регистрации.
func (s *Storage) ListUsernames(ctx context.Context) ([]string, error) {
	const op = "storage.ListUsernames"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT username FROM users ORDER BY created_at, username`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// LoadUser собирает пользователя целиком: подписки в порядке добавления
// и бюджет, привязанный к этим подпискам.
func (s *Storage) LoadUser(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.LoadUser"

	u, err := s.GetUser(ctx, username)
	if err != nil || u == nil {
		return u, err
	}
	subs, err := s.ListSubscriptions(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Subscriptions = subs
	budget, err := s.GetBudget(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.AttachBudget(budget)
	return u, nil
}
