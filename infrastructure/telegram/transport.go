// Package telegram adapts the Bot API to the game: it sends, edits and
// answers on behalf of the service and turns webhook updates into commands.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
)

const notModified = "message is not modified"

// WebhookPath is where Telegram posts updates.
const WebhookPath = "/telegram"

// botAPI is the part of *tgbotapi.BotAPI the transport uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ contract.Transport = (*Transport)(nil)

type Transport struct {
	bot botAPI
	log *slog.Logger
}

// NewBotAPI logs in with token. Every Bot API call is bounded by timeout.
func NewBotAPI(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: login: %v", errors.ErrTransport, err)
	}
	return bot, nil
}

func NewTransport(bot botAPI, log *slog.Logger) *Transport {
	return &Transport{bot: bot, log: log}
}

// RegisterWebhook points Telegram at baseURL + WebhookPath.
func (t *Transport) RegisterWebhook(ctx context.Context, baseURL string, dropPendingUpdates bool) error {
	link := strings.TrimRight(baseURL, "/") + WebhookPath
	webhook, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("%w: webhook %q: %v", errors.ErrInvalidConfig, link, err)
	}
	webhook.DropPendingUpdates = dropPendingUpdates
	webhook.AllowedUpdates = []string{"message", "callback_query"}
	if _, err := call(ctx, func() (*tgbotapi.APIResponse, error) { return t.bot.Request(webhook) }); err != nil {
		return err
	}
	t.log.Info("Webhook registered", "url", link)
	return nil
}

func (t *Transport) SendMessage(ctx context.Context, room int64, replyTo int, text string, keyboard poker.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(room, text)
	if replyTo > 0 {
		msg.ReplyToMessageID = replyTo
		msg.AllowSendingWithoutReply = true
	}
	if keyboard != nil {
		msg.ReplyMarkup = toMarkup(keyboard)
	}
	sent, err := call(ctx, func() (tgbotapi.Message, error) { return t.bot.Send(msg) })
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditMessage replaces text and buttons. Without a keyboard the buttons are
// removed.
func (t *Transport) EditMessage(ctx context.Context, room int64, messageID int, text string, keyboard poker.Keyboard) error {
	var edit tgbotapi.EditMessageTextConfig
	if keyboard != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(room, messageID, text, toMarkup(keyboard))
	} else {
		edit = tgbotapi.NewEditMessageText(room, messageID, text)
	}
	_, err := call(ctx, func() (*tgbotapi.APIResponse, error) { return t.bot.Request(edit) })
	return err
}

func (t *Transport) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	answer := tgbotapi.NewCallback(callbackID, text)
	answer.ShowAlert = alert
	_, err := call(ctx, func() (*tgbotapi.APIResponse, error) { return t.bot.Request(answer) })
	return err
}

func toMarkup(keyboard poker.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := lo.Map(keyboard, func(row []poker.Button, _ int) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(lo.Map(row, func(b poker.Button, _ int) tgbotapi.InlineKeyboardButton {
			return tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)
		})...)
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// call runs a blocking Bot API request and gives up when ctx ends. The
// request itself is bounded by the HTTP client timeout.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value: value, err: err}
	}()
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.value, mapError(r.err)
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), notModified) {
		return fmt.Errorf("%w: %v", errors.ErrNotModified, err)
	}
	return fmt.Errorf("%w: %v", errors.ErrTransport, err)
}
