package news

import (
	"context"
	"log"
	"time"

	"news-digest-bot/internal/models"
)

// DefaultStaleAfter keeps nine topics under 100 source calls a day.
const DefaultStaleAfter = 144 * time.Minute

// Refresher refetches topics whose last fetch is too old.
type Refresher struct {
	cache      *Cache
	store      ArticleStore
	staleAfter time.Duration
}

func NewRefresher(cache *Cache, store ArticleStore, staleAfter time.Duration) *Refresher {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Refresher{cache: cache, store: store, staleAfter: staleAfter}
}

// StaleTopics returns the topics never fetched or fetched more than staleAfter before now.
func (r *Refresher) StaleTopics(ctx context.Context, now time.Time) []models.Topic {
	var stale []models.Topic
	for _, topic := range models.Topics {
		if r.isStale(ctx, topic, now) {
			stale = append(stale, topic)
		}
	}
	return stale
}

func (r *Refresher) isStale(ctx context.Context, topic models.Topic, now time.Time) bool {
	last, ok, err := r.store.LastFetchedAt(ctx, topic)
	if err != nil {
		log.Printf("Error reading last fetch of %s: %v", topic, err)
		return true
	}
	return !ok || now.Sub(last) > r.staleAfter
}

// RefreshTopic fetches topic if it is still stale. It reports whether a fetch happened.
func (r *Refresher) RefreshTopic(ctx context.Context, topic models.Topic, now time.Time) (bool, error) {
	if !r.isStale(ctx, topic, now) {
		return false, nil
	}
	if _, err := r.cache.FetchAndStore(ctx, topic); err != nil {
		return false, err
	}
	return true, nil
}
