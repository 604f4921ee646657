// Package telegram connects the dispatcher to the Telegram Bot API, either by
// long polling or through a webhook.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gamemaster/gamemaster-server-go/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ThinkingMessage is the placeholder shown while a question is answered.
const ThinkingMessage = "🤔 Thinking..."

// HandleErrorMessage is sent when the dispatcher itself fails.
const HandleErrorMessage = "⚠️ Something went wrong. Please try again."

const pollTimeout = 60

// API is the part of *tgbotapi.BotAPI the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler answers one chat message.
type Handler interface {
	Handle(ctx context.Context, chatID, text string) (bot.Reply, error)
}

// Bot relays Telegram updates to a Handler.
type Bot struct {
	api     API
	handler Handler
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewAPI authenticates against the Bot API with cfg.Token.
func NewAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Debug
	return api, nil
}

// New creates a bot adapter.
func New(api API, handler Handler, logger *zap.Logger) *Bot {
	return &Bot{api: api, handler: handler, logger: logger}
}

// Run long-polls for updates until ctx is cancelled. Any webhook is removed
// first because Telegram refuses getUpdates while one is set.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram polling started")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// RegisterWebhook points Telegram at url.
func (b *Bot) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	b.logger.Info("telegram webhook registered")
	return nil
}

// ServeHTTP handles one webhook delivery.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("invalid telegram update", zap.Error(err))
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	b.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

// HandleUpdate answers a text message. Other update kinds are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	key := strconv.FormatInt(chatID, 10)

	if bot.IsCommand(msg.Text) {
		reply, err := b.handler.Handle(ctx, key, msg.Text)
		if err != nil {
			b.logger.Error("failed to handle command",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			b.send(tgbotapi.NewMessage(chatID, HandleErrorMessage))
			return
		}
		out := tgbotapi.NewMessage(chatID, FormatMarkdownV2(reply.Text))
		out.ParseMode = tgbotapi.ModeMarkdownV2
		b.send(out)
		return
	}

	placeholder, err := b.api.Send(tgbotapi.NewMessage(chatID, ThinkingMessage))
	if err != nil {
		b.logger.Warn("failed to send placeholder",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}

	text := HandleErrorMessage
	parseMode := ""
	if reply, err := b.handler.Handle(ctx, key, msg.Text); err != nil {
		b.logger.Error("failed to handle message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	} else {
		text = FormatMarkdownV2(reply.Text)
		parseMode = tgbotapi.ModeMarkdownV2
	}

	if placeholder.MessageID == 0 {
		out := tgbotapi.NewMessage(chatID, text)
		out.ParseMode = parseMode
		b.send(out)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, placeholder.MessageID, text)
	edit.ParseMode = parseMode
	b.send(edit)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send telegram message", zap.Error(err))
	}
}
