package digest

import (
	"context"
	"fmt"
	"log"
	"time"

	"news-digest-bot/internal/models"
)

// Store lists the users due for a digest and what they follow.
type Store interface {
	UsersByDeliveryTime(ctx context.Context, t models.DeliveryTime) ([]models.User, error)
	SubscriptionsByUserID(ctx context.Context, userID int64) ([]models.Topic, error)
}

type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Result summarizes one dispatch run.
type Result struct {
	Matched int
	Sent    int
	Skipped int
	Failed  int
}

// Dispatcher sends each user their digest at the minute they picked.
type Dispatcher struct {
	store     Store
	headlines HeadlineSource
	sender    Sender
	limit     int
}

func NewDispatcher(store Store, headlines HeadlineSource, sender Sender, limit int) *Dispatcher {
	if limit <= 0 {
		limit = 5
	}
	return &Dispatcher{store: store, headlines: headlines, sender: sender, limit: limit}
}

// Dispatch sends digests to every user whose delivery time equals the UTC minute of now.
// Per-user failures are logged and counted. A failed user lookup or a cancelled
// context stops the run and is returned with the counts so far.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time) (Result, error) {
	slot := models.DeliveryTimeOf(now)

	users, err := d.store.UsersByDeliveryTime(ctx, slot)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get users for %s: %w", slot, err)
	}

	res := Result{Matched: len(users)}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("dispatch %s interrupted after %d users: %w", slot, res.Sent+res.Skipped+res.Failed, err)
		}

		topics, err := d.store.SubscriptionsByUserID(ctx, user.ID)
		if err != nil {
			log.Printf("Error getting subscriptions for user %d: %v", user.ID, err)
			res.Failed++
			continue
		}

		text, ok := Compose(ctx, d.headlines, topics, d.limit)
		if !ok {
			res.Skipped++
			continue
		}

		// headlines degrade to empty on a cancelled context; never send that as "no news"
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("dispatch %s interrupted after %d users: %w", slot, res.Sent+res.Skipped+res.Failed, err)
		}

		if err := d.sender.Send(ctx, user.ID, text); err != nil {
			log.Printf("Error sending digest to user %d: %v", user.ID, err)
			res.Failed++
			continue
		}
		res.Sent++
	}

	if res.Matched > 0 {
		log.Printf("Digest %s: matched %d, sent %d, skipped %d, failed %d", slot, res.Matched, res.Sent, res.Skipped, res.Failed)
	}
	return res, nil
}
