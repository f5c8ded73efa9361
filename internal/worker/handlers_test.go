package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"news-digest-bot/internal/digest"
	"news-digest-bot/internal/models"
	"news-digest-bot/internal/news"
	"news-digest-bot/internal/test"
	"news-digest-bot/pkg/tasks"
)

var fixedNow = time.Date(2024, 5, 1, 8, 30, 12, 0, time.UTC)

type recordingDispatcher struct {
	ticks  []time.Time
	err    error
	failOn time.Time
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, now time.Time) (digest.Result, error) {
	r.ticks = append(r.ticks, now)
	if !r.failOn.IsZero() && now.Equal(r.failOn) {
		return digest.Result{}, errors.New("slot failed")
	}
	return digest.Result{}, r.err
}

type stubSource struct {
	articles []models.Article
	calls    int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Search(ctx context.Context, topic models.Topic, max int) ([]models.Article, error) {
	s.calls++
	return s.articles, nil
}

func newHandler(t *testing.T, enqueuer tasks.TaskEnqueuer, source news.Source) (*TaskHandler, sqlmock.Sqlmock, *recordingDispatcher) {
	store, mock := test.NewMockDB(t)
	cache := news.NewCache(store, source, 10)
	refresher := news.NewRefresher(cache, store, news.DefaultStaleAfter)
	dispatcher := &recordingDispatcher{}
	h := NewTaskHandler(enqueuer, dispatcher, refresher, store, 10*time.Minute)
	h.now = func() time.Time { return fixedNow }
	return h, mock, dispatcher
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return b
}

func TestHandleDispatchDigestTask(t *testing.T) {
	h, _, dispatcher := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})

	err := h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask())
	require.NoError(t, err)
	assert.Equal(t, []time.Time{fixedNow.Truncate(time.Minute)}, dispatcher.ticks)

	h.now = func() time.Time { return fixedNow.Add(time.Minute) }
	dispatcher.err = errors.New("db down")
	assert.Error(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))
}

func TestDispatchDigestTaskOncePerMinute(t *testing.T) {
	h, _, dispatcher := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})

	h.now = func() time.Time { return time.Date(2024, 5, 1, 8, 32, 5, 0, time.UTC) }
	require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))
	h.now = func() time.Time { return time.Date(2024, 5, 1, 8, 32, 40, 0, time.UTC) }
	require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))

	assert.Equal(t, []time.Time{time.Date(2024, 5, 1, 8, 32, 0, 0, time.UTC)}, dispatcher.ticks)
}

func TestDispatchDigestTaskRunningLateCoversSkippedMinute(t *testing.T) {
	h, _, dispatcher := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})
	minute := func(m, sec int) time.Time { return time.Date(2024, 5, 1, 8, m, sec, 0, time.UTC) }

	// 08:30 on time, the 08:31 task delayed into 08:32, then the 08:32 task
	for _, now := range []time.Time{minute(30, 1), minute(32, 5), minute(32, 40)} {
		now := now
		h.now = func() time.Time { return now }
		require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))
	}

	assert.Equal(t, []time.Time{minute(30, 0), minute(31, 0), minute(32, 0)}, dispatcher.ticks)
}

func TestDispatchDigestTaskFailedSlotDoesNotSkipLaterSlots(t *testing.T) {
	h, _, dispatcher := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})
	minute := func(m int) time.Time { return time.Date(2024, 5, 1, 8, m, 0, 0, time.UTC) }

	h.now = func() time.Time { return minute(30) }
	require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))

	dispatcher.failOn = minute(31)
	h.now = func() time.Time { return minute(33) }
	err := h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "08:31")

	assert.Equal(t, []time.Time{minute(30), minute(31), minute(32), minute(33)}, dispatcher.ticks)
}

func TestDispatchDigestTaskDropsLongGaps(t *testing.T) {
	h, _, dispatcher := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})

	h.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))
	h.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))

	assert.Equal(t, []time.Time{
		time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}, dispatcher.ticks)
}

type slotStore struct{ users map[models.DeliveryTime][]models.User }

func (s slotStore) UsersByDeliveryTime(ctx context.Context, t models.DeliveryTime) ([]models.User, error) {
	return s.users[t], nil
}

func (s slotStore) SubscriptionsByUserID(ctx context.Context, userID int64) ([]models.Topic, error) {
	return []models.Topic{models.TopicWorld}, nil
}

type worldHeadlines struct{}

func (worldHeadlines) Headlines(ctx context.Context, topic models.Topic, limit int) []models.Headline {
	return []models.Headline{{Title: "Summit", URL: "https://example.com/summit"}}
}

type countingSender struct{ sent map[int64]int }

func (c *countingSender) Send(ctx context.Context, chatID int64, text string) error {
	c.sent[chatID]++
	return nil
}

func TestDispatchDigestTaskSendsEachUserOnce(t *testing.T) {
	store := slotStore{users: map[models.DeliveryTime][]models.User{
		{Hour: 8, Minute: 31}: {{ID: 831, DeliveryHour: 8, DeliveryMinute: 31}},
		{Hour: 8, Minute: 32}: {{ID: 832, DeliveryHour: 8, DeliveryMinute: 32}},
	}}
	sender := &countingSender{sent: make(map[int64]int)}
	h := NewTaskHandler(&test.MockTaskEnqueuer{}, digest.NewDispatcher(store, worldHeadlines{}, sender, 5), nil, nil, time.Minute)

	for _, now := range []time.Time{
		time.Date(2024, 5, 1, 8, 30, 2, 0, time.UTC),
		time.Date(2024, 5, 1, 8, 32, 5, 0, time.UTC),
		time.Date(2024, 5, 1, 8, 32, 40, 0, time.UTC),
	} {
		now := now
		h.now = func() time.Time { return now }
		require.NoError(t, h.HandleDispatchDigestTask(context.Background(), tasks.NewDispatchDigestTask()))
	}

	assert.Equal(t, map[int64]int{831: 1, 832: 1}, sender.sent)
}

func expectLastFetched(mock sqlmock.Sqlmock, stale ...models.Topic) {
	isStale := make(map[models.Topic]bool)
	for _, s := range stale {
		isStale[s] = true
	}
	for _, topic := range models.Topics {
		rows := sqlmock.NewRows([]string{"max"})
		if isStale[topic] {
			rows.AddRow(nil)
		} else {
			rows.AddRow(fixedNow.Add(-time.Hour))
		}
		mock.ExpectQuery(`SELECT MAX\(fetched_at\) FROM topic_fetches WHERE topic = \$1`).
			WithArgs(string(topic)).WillReturnRows(rows)
	}
}

func TestHandleRefreshAllTopicsTask(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{}
	h, mock, _ := newHandler(t, enqueuer, &stubSource{})
	expectLastFetched(mock, models.TopicTechnology, models.TopicHealth)

	err := h.HandleRefreshAllTopicsTask(context.Background(), tasks.NewRefreshAllTopicsTask())

	require.NoError(t, err)
	require.Len(t, enqueuer.EnqueuedTasks, 2)
	var topicsQueued []string
	for _, task := range enqueuer.EnqueuedTasks {
		assert.Equal(t, tasks.TypeRefreshTopic, task.Type())
		var p tasks.RefreshTopicTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &p))
		topicsQueued = append(topicsQueued, p.Topic)
	}
	assert.Equal(t, []string{"technology", "health"}, topicsQueued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRefreshAllTopicsTaskEnqueueFailure(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{Err: errors.New("redis unavailable")}
	h, mock, _ := newHandler(t, enqueuer, &stubSource{})
	expectLastFetched(mock, models.Topics...)

	err := h.HandleRefreshAllTopicsTask(context.Background(), tasks.NewRefreshAllTopicsTask())

	assert.NoError(t, err, "enqueue failures are logged, not returned")
	assert.NoError(t, mock.ExpectationsWereMet(), "every topic was still checked")
}

func TestHandleRefreshTopicTask(t *testing.T) {
	published := fixedNow.Add(-30 * time.Minute)
	source := &stubSource{articles: []models.Article{
		{Title: "Chips", Content: "body", URL: "https://example.com/chips", PublishedAt: published},
	}}
	h, mock, _ := newHandler(t, &test.MockTaskEnqueuer{}, source)

	mock.ExpectQuery(`SELECT MAX\(fetched_at\) FROM topic_fetches WHERE topic = \$1`).
		WithArgs("technology").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectExec(`INSERT INTO news`).
		WithArgs("Chips", "body", "https://example.com/chips", published, "technology", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO topic_fetches`).
		WithArgs("technology", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task, err := tasks.NewRefreshTopicTask("technology", 10*time.Minute)
	require.NoError(t, err)

	err = h.HandleRefreshTopicTask(context.Background(), task)

	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRefreshTopicTaskFreshTopic(t *testing.T) {
	source := &stubSource{}
	h, mock, _ := newHandler(t, &test.MockTaskEnqueuer{}, source)
	mock.ExpectQuery(`SELECT MAX\(fetched_at\) FROM topic_fetches`).
		WithArgs("world").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(fixedNow.Add(-time.Minute)))

	task, err := tasks.NewRefreshTopicTask("world", 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, h.HandleRefreshTopicTask(context.Background(), task))
	assert.Equal(t, 0, source.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRefreshTopicTaskUnknownTopic(t *testing.T) {
	h, _, _ := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})
	task := asynq.NewTask(tasks.TypeRefreshTopic, mustMarshal(t, tasks.RefreshTopicTaskPayload{Topic: "crypto"}))

	err := h.HandleRefreshTopicTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandlePruneArticlesTask(t *testing.T) {
	h, mock, _ := newHandler(t, &test.MockTaskEnqueuer{}, &stubSource{})
	retention := 30 * 24 * time.Hour
	mock.ExpectExec(`DELETE FROM news WHERE fetched_at < \$1`).
		WithArgs(fixedNow.Add(-retention)).
		WillReturnResult(sqlmock.NewResult(0, 12))

	task, err := tasks.NewPruneArticlesTask(retention)
	require.NoError(t, err)

	require.NoError(t, h.HandlePruneArticlesTask(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}
