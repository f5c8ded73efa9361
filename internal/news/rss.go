package news

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"news-digest-bot/internal/models"
)

const DefaultGoogleNewsURL = "https://news.google.com/rss/search"

// GoogleNewsRSS reads the Google News search feed. It needs no credentials.
type GoogleNewsRSS struct {
	baseURL  string
	language string
	parser   *gofeed.Parser
}

func NewGoogleNewsRSS(language string) *GoogleNewsRSS {
	return &GoogleNewsRSS{
		baseURL:  DefaultGoogleNewsURL,
		language: language,
		parser:   gofeed.NewParser(),
	}
}

func (g *GoogleNewsRSS) WithBaseURL(u string) *GoogleNewsRSS {
	g.baseURL = u
	return g
}

func (g *GoogleNewsRSS) Name() string {
	return "google-news-rss"
}

func (g *GoogleNewsRSS) Search(ctx context.Context, topic models.Topic, max int) ([]models.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("q", string(topic))
	params.Set("hl", g.language)

	feed, err := g.parser.ParseURLWithContext(g.baseURL+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse google news feed: %w", err)
	}

	now := time.Now().UTC()
	articles := make([]models.Article, 0, max)
	for _, item := range feed.Items {
		if len(articles) == max {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		publishedAt := now
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}
		articles = append(articles, models.Article{
			Title:       item.Title,
			Content:     item.Description,
			URL:         item.Link,
			PublishedAt: publishedAt,
			Topic:       topic,
		})
	}
	return articles, nil
}
