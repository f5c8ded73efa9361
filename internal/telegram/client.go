package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the client uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client sends Markdown messages and falls back to plain text when Telegram
// rejects the markup.
type Client struct {
	api API
}

func NewClient(api API) *Client {
	return &Client{api: api}
}

func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.SendWithKeyboard(chatID, text, nil)
}

func (c *Client) SendWithKeyboard(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	_, err := c.api.Send(msg)
	if isParseError(err) {
		log.Printf("Markdown rejected for chat %d, resending as plain text: %v", chatID, err)
		msg.ParseMode = ""
		_, err = c.api.Send(msg)
	}
	if err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// Edit replaces the text and keyboard of an existing message.
func (c *Client) Edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = keyboard

	_, err := c.api.Send(edit)
	if isParseError(err) {
		log.Printf("Markdown rejected for chat %d, editing as plain text: %v", chatID, err)
		edit.ParseMode = ""
		_, err = c.api.Send(edit)
	}
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return fmt.Errorf("failed to edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (c *Client) AnswerCallback(callbackID, text string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func (c *Client) Typing(chatID int64) error {
	_, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// SetCommands publishes the command list shown in the Telegram client.
func (c *Client) SetCommands(commands ...tgbotapi.BotCommand) error {
	_, err := c.api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

func isParseError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "can't parse entities")
}
