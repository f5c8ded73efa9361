package db_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"news-digest-bot/internal/models"
	"news-digest-bot/internal/test"
)

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	store, mock := test.NewMockDB(t)

	mock.ExpectExec(`INSERT INTO subscriptions .* ON CONFLICT \(user_id, topic\) DO NOTHING`).
		WithArgs(int64(1), "technology").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(int64(1), "technology").
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.Subscribe(ctx, 1, models.TopicTechnology)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Subscribe(ctx, 1, models.TopicTechnology)
	require.NoError(t, err)
	assert.False(t, created, "duplicate subscribe is a no-op")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeUnknownTopic(t *testing.T) {
	store, mock := test.NewMockDB(t)

	created, err := store.Subscribe(context.Background(), 1, models.Topic("crypto"))
	assert.Error(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	store, mock := test.NewMockDB(t)

	mock.ExpectExec(`DELETE FROM subscriptions WHERE user_id = \$1 AND topic = \$2`).
		WithArgs(int64(1), "health").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM subscriptions WHERE user_id = \$1 AND topic = \$2`).
		WithArgs(int64(1), "sports").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := store.Unsubscribe(ctx, 1, models.TopicHealth)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Unsubscribe(ctx, 1, models.TopicSports)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionsByUserID(t *testing.T) {
	store, mock := test.NewMockDB(t)
	rows := sqlmock.NewRows([]string{"topic"}).AddRow("technology").AddRow("health")
	mock.ExpectQuery(`SELECT topic FROM subscriptions WHERE user_id = \$1`).
		WithArgs(int64(3)).WillReturnRows(rows)

	topics, err := store.SubscriptionsByUserID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []models.Topic{models.TopicTechnology, models.TopicHealth}, topics)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountSubscriptions(t *testing.T) {
	store, mock := test.NewMockDB(t)
	rows := sqlmock.NewRows([]string{"topic", "count"}).AddRow("world", 3).AddRow("science", 1)
	mock.ExpectQuery(`SELECT topic, COUNT\(\*\) AS count FROM subscriptions GROUP BY topic`).WillReturnRows(rows)

	counts, err := store.CountSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.TopicWorld])
	assert.Equal(t, 1, counts[models.TopicScience])
	assert.Equal(t, 0, counts[models.TopicHealth])
}
