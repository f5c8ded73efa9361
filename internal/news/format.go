package news

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"news-digest-bot/internal/models"
)

// FormatHeadlines renders headlines as Telegram Markdown bullet entries.
func FormatHeadlines(headlines []models.Headline) string {
	entries := make([]string, len(headlines))
	for i, h := range headlines {
		entries[i] = "• " + Escape(h.Title) + "\n" + Escape(h.URL)
	}
	return strings.Join(entries, "\n\n")
}

func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
