package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"news-digest-bot/internal/db"
	"news-digest-bot/internal/digest"
	"news-digest-bot/internal/models"
	"news-digest-bot/internal/news"
)

const (
	welcomeText = "👋 *Welcome to News Digest!*\n\n" +
		"Browse headlines by topic, follow the topics you care about and get a daily digest at a time you choose."
	helpText = "*Commands*\n" +
		"/news - browse headlines by topic\n" +
		"/news <topic> - latest headlines for a topic\n" +
		"/subscribe - pick topics for your digest\n" +
		"/subscribe <topic> - follow a topic\n" +
		"/unsubscribe <topic> - stop following a topic\n" +
		"/mysubscriptions - topics you follow\n" +
		"/mynews - your digest right now\n" +
		"/set\\_delivery\\_time HH:MM - when to send your daily digest\n" +
		"/get\\_delivery\\_time - your current delivery time\n" +
		"/settings - preferences\n" +
		"/stats - subscribers per topic"
	errorText           = "⚠️ Something went wrong. Please try again later."
	slowDownText        = "⏳ You're going a bit fast. Please wait a moment."
	unknownText         = "Sorry, I don't understand that. Try /help."
	noSubscriptionsText = "You have no subscriptions yet. Use /subscribe to pick topics."
	invalidTimeText     = "❌ Invalid time. Use HH:MM in 24-hour format, for example /set\\_delivery\\_time 08:30."
	registerFirstText   = "Please send /start first."
	chooseTopicText     = "📰 Choose a topic:"
	subscribeMenuText   = "Tap a topic to follow it. Topics marked ✅ are in your digest; tap them to stop following."
)

// HandleEvent runs one user request. Failures are reported to the user and logged.
func (h *Handlers) HandleEvent(ctx context.Context, ev Event) {
	if h.limiter != nil && !h.limiter.Allow(ev.UserID) {
		h.reply(ev, slowDownText, nil)
		return
	}

	if _, err := h.store.UpsertUser(ctx, ev.UserID, ev.Handle, h.DefaultDeliveryTimeUTC()); err != nil {
		log.Printf("Error registering user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}

	switch ev.Action {
	case ActionStart:
		h.reply(ev, welcomeText, mainMenuKeyboard())
	case ActionHelp:
		h.reply(ev, helpText, backKeyboard("main"))
	case ActionNews:
		h.reply(ev, chooseTopicText, topicsKeyboard("news", nil))
	case ActionNewsTopic:
		h.handleNewsTopic(ctx, ev)
	case ActionSubscribeMenu:
		h.handleSubscribeMenu(ctx, ev, subscribeMenuText)
	case ActionSubscribe:
		h.handleSubscribe(ctx, ev)
	case ActionUnsubscribe:
		h.handleUnsubscribe(ctx, ev)
	case ActionMySubscriptions:
		h.handleMySubscriptions(ctx, ev)
	case ActionMyNews:
		h.handleMyNews(ctx, ev)
	case ActionSettings:
		h.handleSettings(ctx, ev)
	case ActionDeliveryTime:
		h.reply(ev, fmt.Sprintf("🕒 Pick a delivery time (%s):", news.Escape(h.opts.Location.String())), deliveryTimeKeyboard())
	case ActionSetTime:
		h.handleSetTime(ctx, ev)
	case ActionGetTime:
		h.handleGetTime(ctx, ev)
	case ActionStats:
		h.handleStats(ctx, ev)
	default:
		h.reply(ev, unknownText, nil)
	}
}

func (h *Handlers) reply(ev Event, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if err := ev.Reply.Reply(text, keyboard); err != nil {
		log.Printf("Error replying to user %d: %v", ev.UserID, err)
	}
}

func (h *Handlers) pending(ev Event, text string) {
	if err := ev.Reply.Pending(text); err != nil {
		log.Printf("Error showing progress to user %d: %v", ev.UserID, err)
	}
}

// parseTopicArg replies with the valid topics when arg names none.
func (h *Handlers) parseTopicArg(ev Event) (models.Topic, bool) {
	topic, ok := models.ParseTopic(ev.Arg)
	if !ok {
		names := make([]string, len(models.Topics))
		for i, t := range models.Topics {
			names[i] = string(t)
		}
		h.reply(ev, fmt.Sprintf("❌ Unknown topic \"%s\". Available topics: %s.", news.Escape(ev.Arg), strings.Join(names, ", ")), nil)
	}
	return topic, ok
}

func (h *Handlers) handleNewsTopic(ctx context.Context, ev Event) {
	topic, ok := h.parseTopicArg(ev)
	if !ok {
		return
	}

	h.pending(ev, fmt.Sprintf("⏳ Fetching the latest *%s* news...", topic.Title()))
	headlines := h.headlines.Headlines(ctx, topic, h.opts.HeadlineLimit)
	if len(headlines) == 0 {
		h.reply(ev, fmt.Sprintf("No *%s* news right now. Please try again later.", topic.Title()), backKeyboard("news"))
		return
	}

	text := fmt.Sprintf("📰 *%s*\n\n%s", topic.Title(), news.FormatHeadlines(headlines))
	h.reply(ev, digest.Truncate(text, digest.MaxMessageLength), backKeyboard("news"))
}

func (h *Handlers) subscribedSet(ctx context.Context, userID int64) (map[models.Topic]bool, error) {
	topics, err := h.store.SubscriptionsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[models.Topic]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	return set, nil
}

func (h *Handlers) handleSubscribeMenu(ctx context.Context, ev Event, text string) {
	subscribed, err := h.subscribedSet(ctx, ev.UserID)
	if err != nil {
		log.Printf("Error getting subscriptions for user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}
	h.reply(ev, text, topicsKeyboard("subscribe", subscribed))
}

func (h *Handlers) handleSubscribe(ctx context.Context, ev Event) {
	topic, ok := h.parseTopicArg(ev)
	if !ok {
		return
	}

	created, err := h.store.Subscribe(ctx, ev.UserID, topic)
	if err != nil {
		log.Printf("Error subscribing user %d to %s: %v", ev.UserID, topic, err)
		h.reply(ev, errorText, nil)
		return
	}

	text := fmt.Sprintf("✅ Subscribed to *%s*.", topic.Title())
	if !created {
		text = fmt.Sprintf("You already follow *%s*.", topic.Title())
	}
	h.handleSubscribeMenu(ctx, ev, text)
}

func (h *Handlers) handleUnsubscribe(ctx context.Context, ev Event) {
	topic, ok := h.parseTopicArg(ev)
	if !ok {
		return
	}

	removed, err := h.store.Unsubscribe(ctx, ev.UserID, topic)
	if err != nil {
		log.Printf("Error unsubscribing user %d from %s: %v", ev.UserID, topic, err)
		h.reply(ev, errorText, nil)
		return
	}

	text := fmt.Sprintf("🗑 Unsubscribed from *%s*.", topic.Title())
	if !removed {
		text = fmt.Sprintf("You are not subscribed to *%s*.", topic.Title())
	}
	h.handleSubscribeMenu(ctx, ev, text)
}

func (h *Handlers) handleMySubscriptions(ctx context.Context, ev Event) {
	topics, err := h.store.SubscriptionsByUserID(ctx, ev.UserID)
	if err != nil {
		log.Printf("Error getting subscriptions for user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}
	if len(topics) == 0 {
		h.reply(ev, noSubscriptionsText, backKeyboard("main"))
		return
	}

	var b strings.Builder
	b.WriteString("📋 *Your subscriptions*\n")
	for _, t := range topics {
		b.WriteString("\n• " + t.Title())
	}
	h.reply(ev, b.String(), backKeyboard("main"))
}

func (h *Handlers) handleMyNews(ctx context.Context, ev Event) {
	topics, err := h.store.SubscriptionsByUserID(ctx, ev.UserID)
	if err != nil {
		log.Printf("Error getting subscriptions for user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}
	if len(topics) == 0 {
		h.reply(ev, noSubscriptionsText, backKeyboard("main"))
		return
	}

	h.pending(ev, "⏳ Collecting your news...")
	text, _ := digest.Compose(ctx, h.headlines, topics, h.opts.HeadlineLimit)
	h.reply(ev, text, backKeyboard("main"))
}

func (h *Handlers) handleSettings(ctx context.Context, ev Event) {
	t, err := h.store.GetDeliveryTime(ctx, ev.UserID)
	if err != nil {
		log.Printf("Error getting delivery time for user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}
	text := fmt.Sprintf("⚙️ *Settings*\n\nDaily digest time: *%s* (%s)", h.toLocal(t), news.Escape(h.opts.Location.String()))
	h.reply(ev, text, settingsKeyboard())
}

func (h *Handlers) handleSetTime(ctx context.Context, ev Event) {
	local, err := models.ParseDeliveryTime(ev.Arg)
	if err != nil {
		h.reply(ev, invalidTimeText, nil)
		return
	}

	updated, err := h.store.SetDeliveryTime(ctx, ev.UserID, h.toUTC(local))
	if err != nil {
		log.Printf("Error setting delivery time for user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}
	if !updated {
		h.reply(ev, registerFirstText, nil)
		return
	}

	h.reply(ev, fmt.Sprintf("✅ Your daily digest will arrive at *%s* (%s).", local, news.Escape(h.opts.Location.String())), settingsKeyboard())
}

func (h *Handlers) handleGetTime(ctx context.Context, ev Event) {
	t, err := h.store.GetDeliveryTime(ctx, ev.UserID)
	if errors.Is(err, db.ErrNotFound) {
		h.reply(ev, registerFirstText, nil)
		return
	}
	if err != nil {
		log.Printf("Error getting delivery time for user %d: %v", ev.UserID, err)
		h.reply(ev, errorText, nil)
		return
	}
	h.reply(ev, fmt.Sprintf("🕒 Your daily digest arrives at *%s* (%s).", h.toLocal(t), news.Escape(h.opts.Location.String())), nil)
}

func (h *Handlers) handleStats(ctx context.Context, ev Event) {
	counts, err := h.store.CountSubscriptions(ctx)
	if err != nil {
		log.Printf("Error counting subscriptions: %v", err)
		h.reply(ev, errorText, nil)
		return
	}

	topics := append([]models.Topic(nil), models.Topics...)
	sort.SliceStable(topics, func(i, j int) bool { return counts[topics[i]] > counts[topics[j]] })

	var b strings.Builder
	b.WriteString("📊 *Subscribers per topic*\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "\n%s: %d", t.Title(), counts[t])
	}
	h.reply(ev, b.String(), nil)
}
