package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"news-digest-bot/internal/digest"
	"news-digest-bot/internal/models"
	"news-digest-bot/pkg/tasks"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (digest.Result, error)
}

type Refresher interface {
	StaleTopics(ctx context.Context, now time.Time) []models.Topic
	RefreshTopic(ctx context.Context, topic models.Topic, now time.Time) (bool, error)
}

type ArticlePruner interface {
	PruneArticles(ctx context.Context, olderThan time.Time) (int64, error)
}

// maxDispatchLag is how far a queued dispatch may run behind and still deliver
// the minutes it was late for. Older gaps are dropped.
const maxDispatchLag = 5 * time.Minute

type TaskHandler struct {
	asynqClient  tasks.TaskEnqueuer
	dispatcher   Dispatcher
	refresher    Refresher
	pruner       ArticlePruner
	refreshEvery time.Duration
	now          func() time.Time

	mu       sync.Mutex
	lastSlot time.Time
}

// NewTaskHandler wires the task handlers. refreshEvery bounds how long a queued
// refresh of the same topic is deduplicated.
func NewTaskHandler(client tasks.TaskEnqueuer, dispatcher Dispatcher, refresher Refresher, pruner ArticlePruner, refreshEvery time.Duration) *TaskHandler {
	return &TaskHandler{
		asynqClient:  client,
		dispatcher:   dispatcher,
		refresher:    refresher,
		pruner:       pruner,
		refreshEvery: refreshEvery,
		now:          time.Now,
	}
}

func (h *TaskHandler) HandleDispatchDigestTask(ctx context.Context, t *asynq.Task) error {
	var errs []error
	for _, slot := range h.dueSlots(h.now()) {
		if _, err := h.dispatcher.Dispatch(ctx, slot); err != nil {
			errs = append(errs, fmt.Errorf("failed to dispatch digests for %s: %w", slot.Format("15:04"), err))
		}
	}
	return errors.Join(errs...)
}

// dueSlots returns the UTC minutes not yet dispatched, up to the minute of now.
// Each minute is handed out once, even if its dispatch later fails.
func (h *TaskHandler) dueSlots(now time.Time) []time.Time {
	minute := now.UTC().Truncate(time.Minute)

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.lastSlot.IsZero() && !minute.After(h.lastSlot) {
		log.Printf("Digests for %s already dispatched, skipping", minute.Format("15:04"))
		return nil
	}

	var slots []time.Time
	if h.lastSlot.IsZero() || minute.Sub(h.lastSlot) > maxDispatchLag {
		slots = []time.Time{minute}
	} else {
		for slot := h.lastSlot.Add(time.Minute); !slot.After(minute); slot = slot.Add(time.Minute) {
			slots = append(slots, slot)
		}
	}
	h.lastSlot = minute
	return slots
}

func (h *TaskHandler) HandleRefreshAllTopicsTask(ctx context.Context, t *asynq.Task) error {
	stale := h.refresher.StaleTopics(ctx, h.now())
	if len(stale) == 0 {
		return nil
	}
	log.Printf("Refreshing %d stale topics", len(stale))

	for _, topic := range stale {
		task, err := tasks.NewRefreshTopicTask(string(topic), h.refreshEvery)
		if err != nil {
			log.Printf("failed to create refresh task for %s: %v", topic, err)
			continue
		}

		_, err = h.asynqClient.Enqueue(task)
		if err != nil {
			log.Printf("failed to enqueue refresh task for %s: %v", topic, err)
			continue
		}
	}
	return nil
}

func (h *TaskHandler) HandleRefreshTopicTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.RefreshTopicTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	topic, ok := models.ParseTopic(p.Topic)
	if !ok {
		return fmt.Errorf("unknown topic %q: %w", p.Topic, asynq.SkipRetry)
	}

	fetched, err := h.refresher.RefreshTopic(ctx, topic, h.now())
	if err != nil {
		log.Printf("Error refreshing %s: %v", topic, err)
		return nil
	}
	if !fetched {
		log.Printf("Topic %s is fresh, skipping", topic)
	}
	return nil
}

func (h *TaskHandler) HandlePruneArticlesTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.PruneArticlesTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if p.Retention <= 0 {
		return fmt.Errorf("retention must be positive: %w", asynq.SkipRetry)
	}

	n, err := h.pruner.PruneArticles(ctx, h.now().Add(-p.Retention))
	if err != nil {
		return fmt.Errorf("failed to prune articles: %w", err)
	}
	log.Printf("Pruned %d articles older than %s", n, p.Retention)
	return nil
}
