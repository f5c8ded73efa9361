package db

import (
	"context"
	"fmt"

	"news-digest-bot/internal/models"
)

// Subscribe reports false when the user already follows the topic.
func (s *Store) Subscribe(ctx context.Context, userID int64, topic models.Topic) (bool, error) {
	if !topic.Valid() {
		return false, fmt.Errorf("unknown topic %q", topic)
	}
	query := `
		INSERT INTO subscriptions (user_id, topic)
		VALUES ($1, $2)
		ON CONFLICT (user_id, topic) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, userID, topic)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe user %d to %s: %w", userID, topic, err)
	}
	return rowsChanged(res)
}

// Unsubscribe reports false when there was nothing to remove.
func (s *Store) Unsubscribe(ctx context.Context, userID int64, topic models.Topic) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE user_id = $1 AND topic = $2", userID, topic)
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe user %d from %s: %w", userID, topic, err)
	}
	return rowsChanged(res)
}

func (s *Store) SubscriptionsByUserID(ctx context.Context, userID int64) ([]models.Topic, error) {
	query := `
		SELECT topic
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at, topic
	`
	var topics []models.Topic
	if err := s.db.SelectContext(ctx, &topics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get subscriptions for user %d: %w", userID, err)
	}
	return topics, nil
}

// CountSubscriptions returns the number of subscribers per topic.
func (s *Store) CountSubscriptions(ctx context.Context) (map[models.Topic]int, error) {
	var rows []struct {
		Topic models.Topic `db:"topic"`
		Count int          `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT topic, COUNT(*) AS count FROM subscriptions GROUP BY topic"); err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	counts := make(map[models.Topic]int, len(rows))
	for _, r := range rows {
		counts[r.Topic] = r.Count
	}
	return counts, nil
}
