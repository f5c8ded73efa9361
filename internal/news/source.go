package news

import (
	"context"
	"log"

	"news-digest-bot/internal/models"
)

// Source searches an external news provider for a topic.
type Source interface {
	Search(ctx context.Context, topic models.Topic, max int) ([]models.Article, error)
	Name() string
}

// FallbackSource asks the secondary source when the primary fails or finds nothing.
type FallbackSource struct {
	primary   Source
	secondary Source
}

func NewFallbackSource(primary, secondary Source) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary}
}

func (f *FallbackSource) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackSource) Search(ctx context.Context, topic models.Topic, max int) ([]models.Article, error) {
	articles, err := f.primary.Search(ctx, topic, max)
	if err == nil && len(articles) > 0 {
		return articles, nil
	}
	if err != nil {
		log.Printf("%s search for %s failed, trying %s: %v", f.primary.Name(), topic, f.secondary.Name(), err)
	}
	return f.secondary.Search(ctx, topic, max)
}
