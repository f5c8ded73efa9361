package models

import "strings"

// Topic is one of the fixed news categories a user can follow.
type Topic string

const (
	TopicGeneral       Topic = "general"
	TopicWorld         Topic = "world"
	TopicNation        Topic = "nation"
	TopicBusiness      Topic = "business"
	TopicTechnology    Topic = "technology"
	TopicEntertainment Topic = "entertainment"
	TopicSports        Topic = "sports"
	TopicScience       Topic = "science"
	TopicHealth        Topic = "health"
)

// Topics lists every topic in menu order.
var Topics = []Topic{
	TopicGeneral,
	TopicWorld,
	TopicNation,
	TopicBusiness,
	TopicTechnology,
	TopicEntertainment,
	TopicSports,
	TopicScience,
	TopicHealth,
}

// ParseTopic resolves a user supplied token to a Topic.
// The second result is false when the token names no known topic.
func ParseTopic(s string) (Topic, bool) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

func (t Topic) Valid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// Title returns the display label, e.g. "Technology".
func (t Topic) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

func (t Topic) String() string {
	return string(t)
}
