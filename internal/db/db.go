package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
)

// ErrNotFound is returned when a looked up row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id         BIGINT PRIMARY KEY,
	handle          TEXT NOT NULL DEFAULT '',
	delivery_hour   SMALLINT NOT NULL DEFAULT 9 CHECK (delivery_hour BETWEEN 0 AND 23),
	delivery_minute SMALLINT NOT NULL DEFAULT 0 CHECK (delivery_minute BETWEEN 0 AND 59),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS users_delivery_time_idx ON users (delivery_hour, delivery_minute);

CREATE TABLE IF NOT EXISTS subscriptions (
	user_id    BIGINT NOT NULL REFERENCES users (user_id),
	topic      TEXT NOT NULL CHECK (topic IN ('general', 'world', 'nation', 'business', 'technology', 'entertainment', 'sports', 'science', 'health')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, topic)
);

CREATE TABLE IF NOT EXISTS news (
	id           BIGSERIAL PRIMARY KEY,
	title        TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	topic        TEXT NOT NULL,
	fetched_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS news_topic_published_idx ON news (topic, published_at DESC);

CREATE TABLE IF NOT EXISTS topic_fetches (
	topic      TEXT PRIMARY KEY,
	fetched_at TIMESTAMPTZ NOT NULL
);
`

// Store gives access to users, subscriptions and cached articles.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Connect opens and pings a Postgres connection.
func Connect(dbURL string) (*sqlx.DB, error) {
	if dbURL == "" {
		return nil, errors.New("database url is empty")
	}

	conn, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established")
	return conn, nil
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func rowsChanged(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
