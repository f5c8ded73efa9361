package feed

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eduncan911/podcast"
	"news-digest-bot/internal/models"
)

// BaseURL prefers the configured public URL and falls back to the request host.
func BaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateTopicRSS renders cached articles of a topic as an RSS 2.0 document.
func GenerateTopicRSS(topic models.Topic, articles []models.Article, baseURL string, now time.Time) (string, error) {
	updated := now
	if len(articles) > 0 {
		updated = articles[0].FetchedAt
	}

	p := podcast.New(
		fmt.Sprintf("%s headlines", topic.Title()),
		fmt.Sprintf("%s/rss/%s", baseURL, topic),
		fmt.Sprintf("Latest %s news collected by News Digest.", topic),
		&now, &updated,
	)

	for _, a := range articles {
		description := a.Content
		if description == "" {
			description = a.Title
		}
		published := a.PublishedAt
		item := podcast.Item{
			Title:       a.Title,
			Description: description,
			Link:        a.URL,
			PubDate:     &published,
		}
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	return p.String(), nil
}
