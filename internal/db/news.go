package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"news-digest-bot/internal/models"
)

// StoreArticles appends fetched articles for a topic. Existing rows are kept.
func (s *Store) StoreArticles(ctx context.Context, topic models.Topic, articles []models.Article, fetchedAt time.Time) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	rows := make([]models.Article, len(articles))
	for i, a := range articles {
		a.Topic = topic
		a.FetchedAt = fetchedAt
		rows[i] = a
	}

	query := `
		INSERT INTO news (title, content, url, published_at, topic, fetched_at)
		VALUES (:title, :content, :url, :published_at, :topic, :fetched_at)
	`
	res, err := s.db.NamedExecContext(ctx, query, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to store articles for %s: %w", topic, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}

// LatestArticles returns up to limit articles, newest published first.
func (s *Store) LatestArticles(ctx context.Context, topic models.Topic, limit int) ([]models.Article, error) {
	query := `
		SELECT id, title, content, url, published_at, topic, fetched_at
		FROM news
		WHERE topic = $1
		ORDER BY published_at DESC, id DESC
		LIMIT $2
	`
	var articles []models.Article
	if err := s.db.SelectContext(ctx, &articles, query, topic, limit); err != nil {
		return nil, fmt.Errorf("failed to get articles for %s: %w", topic, err)
	}
	return articles, nil
}

// MarkFetched records that the news source was asked about topic at the given time.
func (s *Store) MarkFetched(ctx context.Context, topic models.Topic, at time.Time) error {
	query := `
		INSERT INTO topic_fetches (topic, fetched_at)
		VALUES ($1, $2)
		ON CONFLICT (topic) DO UPDATE SET fetched_at = EXCLUDED.fetched_at
	`
	if _, err := s.db.ExecContext(ctx, query, topic, at); err != nil {
		return fmt.Errorf("failed to mark %s as fetched: %w", topic, err)
	}
	return nil
}

// LastFetchedAt reports false when the topic was never fetched.
func (s *Store) LastFetchedAt(ctx context.Context, topic models.Topic) (time.Time, bool, error) {
	var at sql.NullTime
	err := s.db.GetContext(ctx, &at, "SELECT MAX(fetched_at) FROM topic_fetches WHERE topic = $1", topic)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last fetch of %s: %w", topic, err)
	}
	if !at.Valid {
		return time.Time{}, false, nil
	}
	return at.Time, true, nil
}

// PruneArticles deletes articles fetched before olderThan.
func (s *Store) PruneArticles(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM news WHERE fetched_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune articles: %w", err)
	}
	return res.RowsAffected()
}
