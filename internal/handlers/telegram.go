package handlers

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"news-digest-bot/internal/telegram"
)

// UpdateSource is the polling side of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Main menu"},
	{Command: "news", Description: "Browse headlines by topic"},
	{Command: "mynews", Description: "Your digest right now"},
	{Command: "subscribe", Description: "Pick topics for your digest"},
	{Command: "mysubscriptions", Description: "Topics you follow"},
	{Command: "set_delivery_time", Description: "Set daily digest time (HH:MM)"},
	{Command: "get_delivery_time", Description: "Show daily digest time"},
	{Command: "settings", Description: "Preferences"},
	{Command: "help", Description: "How to use the bot"},
}

// StartTelegramBot polls for updates and handles them one at a time until ctx is done.
func (h *Handlers) StartTelegramBot(ctx context.Context, bot UpdateSource, client *telegram.Client) {
	if err := client.SetCommands(botCommands...); err != nil {
		log.Printf("Error setting bot commands: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)
	log.Println("Telegram bot started")

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			log.Println("Telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(ctx, client, update)
		}
	}
}

func (h *Handlers) handleUpdate(ctx context.Context, client *telegram.Client, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if err := client.AnswerCallback(update.CallbackQuery.ID, ""); err != nil {
			log.Printf("Error answering callback: %v", err)
		}
	}

	ev, ok := EventFromUpdate(client, update)
	if !ok {
		return
	}
	log.Printf("[%d@%d] %s %s", ev.UserID, ev.ChatID, ev.Action, ev.Arg)
	h.HandleEvent(ctx, ev)
}
