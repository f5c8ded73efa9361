package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"news-digest-bot/internal/models"
)

// deliveryPresets are offered as one tap choices, in the display time zone.
var deliveryPresets = []string{"08:00", "12:00", "18:00", "21:00"}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("📰 News", "menu:news"), button("⭐ My news", "menu:my_news")),
		tgbotapi.NewInlineKeyboardRow(button("➕ Subscribe", "menu:subscribe"), button("📋 My subscriptions", "menu:my_subscriptions")),
		tgbotapi.NewInlineKeyboardRow(button("⚙️ Settings", "menu:settings"), button("❓ Help", "menu:help")),
	)
	return &kb
}

func backKeyboard(menu string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", "menu:"+menu)))
	return &kb
}

// topicsKeyboard lays topics out two per row. Each button's data is prefix:topic,
// or the subscribed variant's action for topics marked in subscribed.
func topicsKeyboard(prefix string, subscribed map[models.Topic]bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, topic := range models.Topics {
		label, data := topic.Title(), prefix+":"+string(topic)
		if subscribed[topic] {
			label, data = "✅ "+label, "unsubscribe:"+string(topic)
		}
		row = append(row, button(label, data))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", "menu:main")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func settingsKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🕒 Change delivery time", "menu:delivery_time")),
		tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", "menu:main")),
	)
	return &kb
}

func deliveryTimeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, preset := range deliveryPresets {
		row = append(row, button(preset, "set_time:"+preset))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row, tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", "menu:settings")))
	return &kb
}
