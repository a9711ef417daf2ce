package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Notifier delivers a run summary somewhere a human will read it.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier sends messages to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// TelegramOptions configures NewTelegramNotifier.
type TelegramOptions struct {
	Token    string
	ChatID   int64
	Proxy    string
	Endpoint string // defaults to tgbotapi.APIEndpoint
}

// NewTelegramNotifier authorizes the bot (one getMe call) with optional proxy support.
func NewTelegramNotifier(opts TelegramOptions, log zerolog.Logger) (*TelegramNotifier, error) {
	if opts.Token == "" || opts.ChatID == 0 {
		return nil, fmt.Errorf("telegram token and chat id are required")
	}
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	client := &http.Client{Timeout: 30 * time.Second, Transport: transport}

	api, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	t := &TelegramNotifier{
		api:    api,
		chatID: opts.ChatID,
		log:    log.With().Str("component", "telegram").Logger(),
	}
	t.log.Info().Str("bot", api.Self.UserName).Msg("telegram notifier authorized")
	return t, nil
}

// Send posts text as HTML to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// NoopNotifier is used when Telegram is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string) error { return nil }
