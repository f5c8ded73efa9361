package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"news-digest-bot/internal/models"
)

// UpsertUser registers a user. Registering an existing user changes nothing.
func (s *Store) UpsertUser(ctx context.Context, id int64, handle string, def models.DeliveryTime) (bool, error) {
	query := `
		INSERT INTO users (user_id, handle, delivery_hour, delivery_minute)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, id, handle, def.Hour, def.Minute)
	if err != nil {
		return false, fmt.Errorf("failed to upsert user %d: %w", id, err)
	}
	return rowsChanged(res)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, `
		SELECT user_id, handle, delivery_hour, delivery_minute, created_at
		FROM users
		WHERE user_id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// SetDeliveryTime stores a UTC delivery time. It reports false when the user does not exist.
func (s *Store) SetDeliveryTime(ctx context.Context, id int64, t models.DeliveryTime) (bool, error) {
	if _, err := models.NewDeliveryTime(t.Hour, t.Minute); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET delivery_hour = $1, delivery_minute = $2 WHERE user_id = $3",
		t.Hour, t.Minute, id)
	if err != nil {
		return false, fmt.Errorf("failed to set delivery time for user %d: %w", id, err)
	}
	return rowsChanged(res)
}

func (s *Store) GetDeliveryTime(ctx context.Context, id int64) (models.DeliveryTime, error) {
	var row struct {
		Hour   int `db:"delivery_hour"`
		Minute int `db:"delivery_minute"`
	}
	err := s.db.GetContext(ctx, &row, "SELECT delivery_hour, delivery_minute FROM users WHERE user_id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeliveryTime{}, ErrNotFound
	}
	if err != nil {
		return models.DeliveryTime{}, fmt.Errorf("failed to get delivery time for user %d: %w", id, err)
	}
	return models.DeliveryTime{Hour: row.Hour, Minute: row.Minute}, nil
}

// UsersByDeliveryTime returns users whose stored time equals t exactly.
func (s *Store) UsersByDeliveryTime(ctx context.Context, t models.DeliveryTime) ([]models.User, error) {
	query := `
		SELECT user_id, handle, delivery_hour, delivery_minute, created_at
		FROM users
		WHERE delivery_hour = $1 AND delivery_minute = $2
		ORDER BY user_id
	`
	var users []models.User
	if err := s.db.SelectContext(ctx, &users, query, t.Hour, t.Minute); err != nil {
		return nil, fmt.Errorf("failed to get users for %s: %w", t, err)
	}
	return users, nil
}
