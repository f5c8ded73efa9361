package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"news-digest-bot/internal/telegram"
)

// Action is what a user asked the bot to do, whether by command or button.
type Action string

const (
	ActionStart           Action = "start"
	ActionHelp            Action = "help"
	ActionNews            Action = "news"
	ActionNewsTopic       Action = "news_topic"
	ActionSubscribeMenu   Action = "subscribe_menu"
	ActionSubscribe       Action = "subscribe"
	ActionUnsubscribe     Action = "unsubscribe"
	ActionMySubscriptions Action = "my_subscriptions"
	ActionMyNews          Action = "my_news"
	ActionSettings        Action = "settings"
	ActionDeliveryTime    Action = "delivery_time"
	ActionSetTime         Action = "set_time"
	ActionGetTime         Action = "get_time"
	ActionStats           Action = "stats"
	ActionUnknown         Action = "unknown"
)

// Replier answers the user in the place the event came from.
type Replier interface {
	Reply(text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	// Pending shows that a slow answer is on its way.
	Pending(text string) error
}

// Event is an inbound request with the transport details stripped.
type Event struct {
	UserID int64
	// ChatID is where replies go; for private chats it equals UserID.
	ChatID int64
	Handle string
	Action Action
	Arg    string
	Reply  Replier
}

var commandActions = map[string]Action{
	"start":             ActionStart,
	"help":              ActionHelp,
	"news":              ActionNews,
	"subscribe":         ActionSubscribeMenu,
	"unsubscribe":       ActionMySubscriptions,
	"mysubscriptions":   ActionMySubscriptions,
	"mynews":            ActionMyNews,
	"settings":          ActionSettings,
	"set_delivery_time": ActionSetTime,
	"get_delivery_time": ActionGetTime,
	"stats":             ActionStats,
}

// commands given an argument act on it directly
var argumentActions = map[string]Action{
	"news":        ActionNewsTopic,
	"subscribe":   ActionSubscribe,
	"unsubscribe": ActionUnsubscribe,
}

var menuActions = map[string]Action{
	"main":             ActionStart,
	"help":             ActionHelp,
	"news":             ActionNews,
	"subscribe":        ActionSubscribeMenu,
	"my_subscriptions": ActionMySubscriptions,
	"my_news":          ActionMyNews,
	"settings":         ActionSettings,
	"delivery_time":    ActionDeliveryTime,
}

var callbackActions = map[string]Action{
	"news":        ActionNewsTopic,
	"subscribe":   ActionSubscribe,
	"unsubscribe": ActionUnsubscribe,
	"set_time":    ActionSetTime,
}

// EventFromUpdate normalizes a message or a button press.
// It returns false for updates the bot does not handle.
func EventFromUpdate(client *telegram.Client, update tgbotapi.Update) (Event, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		ev := Event{
			UserID: msg.From.ID,
			ChatID: msg.Chat.ID,
			Handle: msg.From.UserName,
			Action: ActionUnknown,
			Reply:  &messageReplier{client: client, chatID: msg.Chat.ID},
		}
		if msg.IsCommand() {
			ev.Arg = strings.TrimSpace(msg.CommandArguments())
			ev.Action = commandAction(msg.Command(), ev.Arg)
		}
		return ev, true

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := update.CallbackQuery
		action, arg := callbackAction(cb.Data)
		return Event{
			UserID: cb.From.ID,
			ChatID: cb.Message.Chat.ID,
			Handle: cb.From.UserName,
			Action: action,
			Arg:    arg,
			Reply: &callbackReplier{
				client:    client,
				chatID:    cb.Message.Chat.ID,
				messageID: cb.Message.MessageID,
			},
		}, true
	}
	return Event{}, false
}

func commandAction(command, arg string) Action {
	if arg != "" {
		if action, ok := argumentActions[command]; ok {
			return action
		}
	}
	if action, ok := commandActions[command]; ok {
		return action
	}
	return ActionUnknown
}

func callbackAction(data string) (Action, string) {
	prefix, value, ok := strings.Cut(data, ":")
	if !ok {
		return ActionUnknown, ""
	}
	if prefix == "menu" {
		if action, ok := menuActions[value]; ok {
			return action, ""
		}
		return ActionUnknown, ""
	}
	if action, ok := callbackActions[prefix]; ok {
		return action, value
	}
	return ActionUnknown, ""
}

type messageReplier struct {
	client *telegram.Client
	chatID int64
}

func (r *messageReplier) Reply(text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	return r.client.SendWithKeyboard(r.chatID, text, keyboard)
}

func (r *messageReplier) Pending(text string) error {
	return r.client.Typing(r.chatID)
}

type callbackReplier struct {
	client    *telegram.Client
	chatID    int64
	messageID int
}

func (r *callbackReplier) Reply(text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	return r.client.Edit(r.chatID, r.messageID, text, keyboard)
}

func (r *callbackReplier) Pending(text string) error {
	return r.client.Edit(r.chatID, r.messageID, text, nil)
}
