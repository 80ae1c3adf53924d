package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/byteport-bot/internal/models"
	"github.com/magabrotheeeer/byteport-bot/internal/storage"
)

// Get возвращает запись пользователя по идентификатору чата.
func (s *Storage) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	const op = "storage.Get"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT subscription_end, tariff, key, address, expired, free_period_used
			  FROM bot_users
			  WHERE user_id = $1`
	rec, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// Upsert вставляет или полностью перезаписывает запись пользователя.
// Ошибка записи в базу оборачивает storage.ErrPersist.
func (s *Storage) Upsert(ctx context.Context, userID string, rec models.UserRecord) error {
	const op = "storage.Upsert"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tariff, err := tariffValue(rec.Tariff)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO bot_users (user_id, subscription_end, tariff, key, address, expired, free_period_used)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (user_id) DO UPDATE SET
			      subscription_end = EXCLUDED.subscription_end,
			      tariff = EXCLUDED.tariff,
			      key = EXCLUDED.key,
			      address = EXCLUDED.address,
			      expired = EXCLUDED.expired,
			      free_period_used = EXCLUDED.free_period_used,
			      updated_at = NOW();`
	if _, err := s.DB.ExecContext(ctx, query, userID, rec.SubscriptionEnd, tariff,
		rec.Key, rec.Address, rec.Expired, rec.FreePeriodUsed); err != nil {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrPersist, err)
	}
	return nil
}

// Delete удаляет запись пользователя.
func (s *Storage) Delete(ctx context.Context, userID string) error {
	const op = "storage.Delete"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM bot_users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// List возвращает все записи пользователей.
func (s *Storage) List(ctx context.Context) (map[string]models.UserRecord, error) {
	const op = "storage.List"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT user_id, subscription_end, tariff, key, address, expired, free_period_used
			  FROM bot_users`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]models.UserRecord)
	for rows.Next() {
		var (
			userID string
			rec    models.UserRecord
			tariff []byte
		)
		if err = rows.Scan(&userID, &rec.SubscriptionEnd, &tariff, &rec.Key, &rec.Address,
			&rec.Expired, &rec.FreePeriodUsed); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if rec.Tariff, err = models.DecodeTariff(tariff); err != nil {
			return nil, fmt.Errorf("%s: user %s: %w", op, userID, err)
		}
		result[userID] = rec
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// EndingOn возвращает идентификаторы пользователей с датой окончания date.
// Тариф не читается, поэтому повреждённые записи не прерывают выборку.
func (s *Storage) EndingOn(ctx context.Context, date string) ([]string, error) {
	const op = "storage.EndingOn"

	rows, err := s.DB.QueryContext(ctx, `SELECT user_id FROM bot_users WHERE subscription_end = $1 ORDER BY user_id`, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var userID string
		if err = rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, userID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func scanUser(row *sql.Row) (*models.UserRecord, error) {
	var (
		rec    models.UserRecord
		tariff []byte
	)
	if err := row.Scan(&rec.SubscriptionEnd, &tariff, &rec.Key, &rec.Address,
		&rec.Expired, &rec.FreePeriodUsed); err != nil {
		return nil, err
	}
	t, err := models.DecodeTariff(tariff)
	if err != nil {
		return nil, err
	}
	rec.Tariff = t
	return &rec, nil
}

// tariffValue возвращает значение для колонки JSONB: NULL для отсутствующего тарифа.
func tariffValue(t models.Tariff) (any, error) {
	if t == nil {
		return nil, nil
	}
	data, err := models.EncodeTariff(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
