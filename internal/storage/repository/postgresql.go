// Package repository реализует хранилище трекера подписок на PostgreSQL:
// пользователи, подписки, бюджеты, отчёты, состояние напоминаний и
// счётчики идентификаторов.
//
// Методы чтения возвращают (nil, nil), если запись не найдена. Изменяющие
// методы для отсутствующей записи возвращают models.ErrNotFound.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const uniqueViolation = "23505"

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает подключение к PostgreSQL и проверяет его.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return fmt.Errorf("storage.CheckDatabaseReady: required table subscriptions missing")
	}
	return nil
}

// WaitReady повторяет CheckDatabaseReady, пока база не станет доступна.
func WaitReady(ctx context.Context, storage *Storage, retries int, delay time.Duration) error {
	var err error
	for range retries {
		if err = CheckDatabaseReady(ctx, storage); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// NextID выделяет следующий идентификатор для вида сущности: sub01, sub02, ...
func (s *Storage) NextID(ctx context.Context, kind models.EntityKind) (string, error) {
	const op = "storage.NextID"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO id_sequences (kind, last_value) VALUES ($1, 1)
			  ON CONFLICT (kind) DO UPDATE SET last_value = id_sequences.last_value + 1
			  RETURNING last_value`
	var seq int
	if err := s.DB.QueryRowContext(ctx, query, string(kind)).Scan(&seq); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return models.FormatID(kind, seq), nil
}
