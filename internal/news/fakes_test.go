package news

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"news-digest-bot/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	articles map[models.Topic][]models.Article
	fetched  map[models.Topic]time.Time
	readErr  error
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{
		articles: make(map[models.Topic][]models.Article),
		fetched:  make(map[models.Topic]time.Time),
	}
}

func (m *memStore) LatestArticles(ctx context.Context, topic models.Topic, limit int) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	rows := append([]models.Article(nil), m.articles[topic]...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PublishedAt.After(rows[j].PublishedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *memStore) StoreArticles(ctx context.Context, topic models.Topic, articles []models.Article, fetchedAt time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	for _, a := range articles {
		a.Topic = topic
		a.FetchedAt = fetchedAt
		m.articles[topic] = append(m.articles[topic], a)
	}
	return len(articles), nil
}

func (m *memStore) MarkFetched(ctx context.Context, topic models.Topic, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched[topic] = at
	return nil
}

func (m *memStore) LastFetchedAt(ctx context.Context, topic models.Topic) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return time.Time{}, false, m.readErr
	}
	at, ok := m.fetched[topic]
	return at, ok, nil
}

type fakeSource struct {
	mu       sync.Mutex
	name     string
	articles map[models.Topic][]models.Article
	err      error
	calls    []models.Topic
	// started and release, when set, hold every search until release is closed.
	started chan struct{}
	release chan struct{}
}

func (f *fakeSource) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeSource) Search(ctx context.Context, topic models.Topic, max int) ([]models.Article, error) {
	if f.release != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, topic)
	if f.err != nil {
		return nil, f.err
	}
	rows := f.articles[topic]
	if len(rows) > max {
		rows = rows[:max]
	}
	return rows, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errSourceDown = errors.New("source down")

func article(title string, published time.Time) models.Article {
	return models.Article{Title: title, URL: "https://example.com/" + title, PublishedAt: published}
}
