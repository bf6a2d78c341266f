package repository

import (
	"context"
	"fmt"
)

// GetReminderAcks возвращает сохранённые подтверждения напоминаний пользователя
// по идентификатору подписки.
func (s *Storage) GetReminderAcks(ctx context.Context, username string) (map[string]bool, error) {
	const op = "storage.GetReminderAcks"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT subscription_id, acknowledged FROM reminders WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]bool)
	for rows.Next() {
		var (
			id  string
			ack bool
		)
		if err := rows.Scan(&id, &ack); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[id] = ack
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetReminderAck сохраняет флаг подтверждения для подписки пользователя.
func (s *Storage) SetReminderAck(ctx context.Context, username, subscriptionID string, ack bool) error {
	const op = "storage.SetReminderAck"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO reminders (username, subscription_id, acknowledged)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (username, subscription_id) DO UPDATE SET acknowledged = EXCLUDED.acknowledged`
	if _, err := s.DB.ExecContext(ctx, query, username, subscriptionID, ack); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
