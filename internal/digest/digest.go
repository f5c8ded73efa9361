package digest

import (
	"context"
	"strings"

	"news-digest-bot/internal/models"
	"news-digest-bot/internal/news"
)

const (
	// MaxMessageLength leaves headroom under Telegram's 4096 character limit.
	MaxMessageLength = 4000
	TruncationMarker = "..."
	SectionDelimiter = "\n\n---\n\n"

	entrySeparator = "\n\n"

	NoNewsMessage = "No news available for your subscribed topics at the moment."
)

// Section is the headlines of one topic.
type Section struct {
	Topic     models.Topic
	Headlines []models.Headline
}

// Build joins the non-empty sections into one message.
// It returns an empty string when every section is empty.
func Build(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if len(s.Headlines) == 0 {
			continue
		}
		parts = append(parts, "*"+s.Topic.Title()+"*\n"+news.FormatHeadlines(s.Headlines))
	}
	return strings.Join(parts, SectionDelimiter)
}

// Truncate shortens text to max characters, ending it with the truncation marker.
// The cut goes after the last complete entry so no markup is left open.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	marker := []rune(TruncationMarker)
	if max <= len(marker) {
		return string(marker[:max])
	}
	kept := string(runes[:max-len(marker)])
	if i := strings.LastIndex(kept, entrySeparator); i > 0 {
		kept = kept[:i+len(entrySeparator)]
	}
	return kept + TruncationMarker
}

// HeadlineSource returns the newest headlines of a topic.
type HeadlineSource interface {
	Headlines(ctx context.Context, topic models.Topic, limit int) []models.Headline
}

// Compose builds the digest for topics, at most limit headlines per topic.
// It reports false when there are no topics. When every topic is empty the
// digest is NoNewsMessage.
func Compose(ctx context.Context, src HeadlineSource, topics []models.Topic, limit int) (string, bool) {
	if len(topics) == 0 {
		return "", false
	}
	sections := make([]Section, 0, len(topics))
	for _, topic := range topics {
		sections = append(sections, Section{Topic: topic, Headlines: src.Headlines(ctx, topic, limit)})
	}
	text := Build(sections)
	if text == "" {
		return NoNewsMessage, true
	}
	return Truncate(text, MaxMessageLength), true
}
