package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTopic(t *testing.T) {
	for _, known := range Topics {
		got, ok := ParseTopic(string(known))
		assert.True(t, ok)
		assert.Equal(t, known, got)
	}

	got, ok := ParseTopic("  Technology ")
	assert.True(t, ok)
	assert.Equal(t, TopicTechnology, got)

	for _, bad := range []string{"", "crypto", "tech", "general,world"} {
		_, ok := ParseTopic(bad)
		assert.False(t, ok, bad)
	}
}

func TestTopicTitle(t *testing.T) {
	assert.Equal(t, "Technology", TopicTechnology.Title())
	assert.Equal(t, "General", TopicGeneral.Title())
	assert.Equal(t, "", Topic("").Title())
}
