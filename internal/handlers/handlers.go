package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"news-digest-bot/internal/middleware"
	"news-digest-bot/internal/models"
)

// Store is the persistence the handlers need.
type Store interface {
	UpsertUser(ctx context.Context, id int64, handle string, def models.DeliveryTime) (bool, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	Subscribe(ctx context.Context, userID int64, topic models.Topic) (bool, error)
	Unsubscribe(ctx context.Context, userID int64, topic models.Topic) (bool, error)
	SubscriptionsByUserID(ctx context.Context, userID int64) ([]models.Topic, error)
	CountSubscriptions(ctx context.Context) (map[models.Topic]int, error)
	SetDeliveryTime(ctx context.Context, id int64, t models.DeliveryTime) (bool, error)
	GetDeliveryTime(ctx context.Context, id int64) (models.DeliveryTime, error)
	LatestArticles(ctx context.Context, topic models.Topic, limit int) ([]models.Article, error)
}

type HeadlineSource interface {
	Headlines(ctx context.Context, topic models.Topic, limit int) []models.Headline
}

type Options struct {
	// Location is the time zone users see and enter delivery times in.
	Location *time.Location
	// DefaultDeliveryTime is in Location.
	DefaultDeliveryTime models.DeliveryTime
	HeadlineLimit       int
	BaseURL             string
}

type Handlers struct {
	store     Store
	headlines HeadlineSource
	limiter   *middleware.RateLimiter
	opts      Options
	now       func() time.Time
}

func New(store Store, headlines HeadlineSource, limiter *middleware.RateLimiter, opts Options) *Handlers {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HeadlineLimit <= 0 {
		opts.HeadlineLimit = 5
	}
	return &Handlers{
		store:     store,
		headlines: headlines,
		limiter:   limiter,
		opts:      opts,
		now:       time.Now,
	}
}

// DefaultDeliveryTimeUTC is the stored delivery time of new users.
func (h *Handlers) DefaultDeliveryTimeUTC() models.DeliveryTime {
	return h.opts.DefaultDeliveryTime.ToUTC(h.opts.Location, h.now())
}

func (h *Handlers) toUTC(t models.DeliveryTime) models.DeliveryTime {
	return t.ToUTC(h.opts.Location, h.now())
}

func (h *Handlers) toLocal(t models.DeliveryTime) models.DeliveryTime {
	return t.In(h.opts.Location, h.now())
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
