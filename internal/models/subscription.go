package models

import "time"

// Subscription represents a user following a topic.
type Subscription struct {
	UserID    int64     `db:"user_id"`
	Topic     Topic     `db:"topic"`
	CreatedAt time.Time `db:"created_at"`
}
