package handlers

import (
	"context"
	"errors"
	"sort"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"news-digest-bot/internal/db"
	"news-digest-bot/internal/models"
)

type memStore struct {
	users    map[int64]*models.User
	subs     map[int64][]models.Topic
	articles map[models.Topic][]models.Article
	err      error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*models.User),
		subs:     make(map[int64][]models.Topic),
		articles: make(map[models.Topic][]models.Article),
	}
}

func (m *memStore) UpsertUser(ctx context.Context, id int64, handle string, def models.DeliveryTime) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.users[id]; ok {
		return false, nil
	}
	m.users[id] = &models.User{ID: id, Handle: handle, DeliveryHour: def.Hour, DeliveryMinute: def.Minute}
	return true, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memStore) Subscribe(ctx context.Context, userID int64, topic models.Topic) (bool, error) {
	for _, t := range m.subs[userID] {
		if t == topic {
			return false, nil
		}
	}
	m.subs[userID] = append(m.subs[userID], topic)
	return true, nil
}

func (m *memStore) Unsubscribe(ctx context.Context, userID int64, topic models.Topic) (bool, error) {
	topics := m.subs[userID]
	for i, t := range topics {
		if t == topic {
			m.subs[userID] = append(topics[:i:i], topics[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SubscriptionsByUserID(ctx context.Context, userID int64) ([]models.Topic, error) {
	return m.subs[userID], nil
}

func (m *memStore) CountSubscriptions(ctx context.Context) (map[models.Topic]int, error) {
	counts := make(map[models.Topic]int)
	for _, topics := range m.subs {
		for _, t := range topics {
			counts[t]++
		}
	}
	return counts, nil
}

func (m *memStore) SetDeliveryTime(ctx context.Context, id int64, t models.DeliveryTime) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.DeliveryHour, u.DeliveryMinute = t.Hour, t.Minute
	return true, nil
}

func (m *memStore) GetDeliveryTime(ctx context.Context, id int64) (models.DeliveryTime, error) {
	u, ok := m.users[id]
	if !ok {
		return models.DeliveryTime{}, db.ErrNotFound
	}
	return u.DeliveryTime(), nil
}

func (m *memStore) LatestArticles(ctx context.Context, topic models.Topic, limit int) ([]models.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	rows := append([]models.Article(nil), m.articles[topic]...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PublishedAt.After(rows[j].PublishedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

type fakeHeadlines map[models.Topic][]models.Headline

func (f fakeHeadlines) Headlines(ctx context.Context, topic models.Topic, limit int) []models.Headline {
	h := f[topic]
	if len(h) > limit {
		h = h[:limit]
	}
	return h
}

type reply struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

type fakeReplier struct {
	replies []reply
	pending []string
}

func (f *fakeReplier) Reply(text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	f.replies = append(f.replies, reply{text: text, keyboard: keyboard})
	return nil
}

func (f *fakeReplier) Pending(text string) error {
	f.pending = append(f.pending, text)
	return nil
}

func (f *fakeReplier) last() reply {
	if len(f.replies) == 0 {
		return reply{}
	}
	return f.replies[len(f.replies)-1]
}

var errStore = errors.New("db down")

// fixed clock for delivery time conversions
var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestHandlers(store Store, headlines HeadlineSource, loc *time.Location) *Handlers {
	h := New(store, headlines, nil, Options{
		Location:            loc,
		DefaultDeliveryTime: models.DefaultDeliveryTime,
		HeadlineLimit:       5,
		BaseURL:             "https://news.example.com",
	})
	h.now = func() time.Time { return testNow }
	return h
}

func keyboardData(kb *tgbotapi.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				data = append(data, *b.CallbackData)
			}
		}
	}
	return data
}
