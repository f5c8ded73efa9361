package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeDispatchDigest   = "digest:dispatch"
	TypeRefreshAllTopics = "news:refresh_all"
	TypeRefreshTopic     = "news:refresh_topic"
	TypePruneArticles    = "news:prune"
)

// QueueDigest is served before every other queue.
const QueueDigest = "digest"

func NewDispatchDigestTask() *asynq.Task {
	return asynq.NewTask(TypeDispatchDigest, nil, asynq.MaxRetry(0), asynq.Queue(QueueDigest))
}

func NewRefreshAllTopicsTask() *asynq.Task {
	return asynq.NewTask(TypeRefreshAllTopics, nil, asynq.MaxRetry(0))
}

type RefreshTopicTaskPayload struct {
	Topic string
}

// NewRefreshTopicTask returns a task that stays unique while uniqueFor has not elapsed.
func NewRefreshTopicTask(topic string, uniqueFor time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshTopicTaskPayload{Topic: topic})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRefreshTopic, payload, asynq.MaxRetry(0), asynq.Unique(uniqueFor)), nil
}

type PruneArticlesTaskPayload struct {
	Retention time.Duration
}

func NewPruneArticlesTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(PruneArticlesTaskPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePruneArticles, payload, asynq.MaxRetry(1)), nil
}
