package models

import "time"

type Article struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	URL         string    `db:"url"`
	PublishedAt time.Time `db:"published_at"`
	Topic       Topic     `db:"topic"`
	FetchedAt   time.Time `db:"fetched_at"`
}

// Headline is the part of an article shown to users.
type Headline struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (a Article) Headline() Headline {
	return Headline{Title: a.Title, URL: a.URL}
}
