package news

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
	"news-digest-bot/internal/models"
)

// sharedFetchTimeout bounds a fetch made on behalf of several callers.
const sharedFetchTimeout = 45 * time.Second

// ArticleStore is the storage the cache reads from and appends to.
type ArticleStore interface {
	LatestArticles(ctx context.Context, topic models.Topic, limit int) ([]models.Article, error)
	StoreArticles(ctx context.Context, topic models.Topic, articles []models.Article, fetchedAt time.Time) (int, error)
	MarkFetched(ctx context.Context, topic models.Topic, at time.Time) error
	LastFetchedAt(ctx context.Context, topic models.Topic) (time.Time, bool, error)
}

// Cache serves headlines from the store and falls back to the news source
// when a topic has no stored articles at all. Freshness is kept by Refresher.
type Cache struct {
	store     ArticleStore
	source    Source
	fetchSize int
	group     singleflight.Group
	now       func() time.Time
}

func NewCache(store ArticleStore, source Source, fetchSize int) *Cache {
	if fetchSize <= 0 {
		fetchSize = 10
	}
	return &Cache{
		store:     store,
		source:    source,
		fetchSize: fetchSize,
		now:       time.Now,
	}
}

// Headlines returns at most limit headlines for topic, newest first.
// Failures are logged and produce an empty result.
func (c *Cache) Headlines(ctx context.Context, topic models.Topic, limit int) []models.Headline {
	articles, err := c.store.LatestArticles(ctx, topic, limit)
	if err != nil {
		log.Printf("Error reading cached articles for %s: %v", topic, err)
		return nil
	}
	if len(articles) == 0 {
		articles, err = c.fetchOnce(ctx, topic)
		if err != nil {
			log.Printf("Error fetching %s from %s: %v", topic, c.source.Name(), err)
			return nil
		}
		articles = newestFirst(articles, limit)
	}

	headlines := make([]models.Headline, len(articles))
	for i, a := range articles {
		headlines[i] = a.Headline()
	}
	return headlines
}

// fetchOnce collapses concurrent misses for the same topic into one fetch.
// The shared fetch outlives any single caller's cancellation.
func (c *Cache) fetchOnce(ctx context.Context, topic models.Topic) ([]models.Article, error) {
	v, err, _ := c.group.Do(string(topic), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return c.FetchAndStore(fetchCtx, topic)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Article), nil
}

// FetchAndStore asks the source for topic, appends the result and records the fetch.
// Store failures are logged; the fetched articles are still returned.
func (c *Cache) FetchAndStore(ctx context.Context, topic models.Topic) ([]models.Article, error) {
	articles, err := c.source.Search(ctx, topic, c.fetchSize)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", topic, err)
	}

	fetchedAt := c.now().UTC()
	if _, err := c.store.StoreArticles(ctx, topic, articles, fetchedAt); err != nil {
		log.Printf("Error storing %d articles for %s: %v", len(articles), topic, err)
		return articles, nil
	}
	if err := c.store.MarkFetched(ctx, topic, fetchedAt); err != nil {
		log.Printf("Error marking %s as fetched: %v", topic, err)
	}

	log.Printf("Fetched %d articles for %s", len(articles), topic)
	return articles, nil
}

func newestFirst(articles []models.Article, limit int) []models.Article {
	sorted := make([]models.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
