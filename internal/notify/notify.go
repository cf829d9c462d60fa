// Package notify delivers operational alerts to the crew and office.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notification is a short alert for the ops team.
type Notification struct {
	Subject string
	Body    string
}

// Text renders the notification as a single message.
func (n Notification) Text() string {
	switch {
	case n.Subject == "":
		return n.Body
	case n.Body == "":
		return n.Subject
	}
	return n.Subject + "\n\n" + n.Body
}

// Channel delivers notifications somewhere.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Telegram posts to one chat through a bot.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects a bot with token and targets chatID.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, nil)
}

// NewTelegramWithEndpoint is NewTelegram against a custom API endpoint
// (a format string taking token and method) and HTTP client.
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, client tgbotapi.HTTPClient) (*Telegram, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("notify: telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("notify: telegram chat id is not set")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("notify: connecting telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Name implements Channel.
func (t *Telegram) Name() string { return "telegram" }

// Notify implements Channel.
func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, n.Text())
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Log writes notifications to a zap logger. It is always available.
type Log struct {
	log *zap.Logger
}

// NewLog returns a log channel.
func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log.Named("notify")}
}

// Name implements Channel.
func (l *Log) Name() string { return "log" }

// Notify implements Channel.
func (l *Log) Notify(_ context.Context, n Notification) error {
	l.log.Info(n.Subject, zap.String("body", n.Body))
	return nil
}

// Dispatcher fans a notification out to every channel.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher returns a dispatcher over channels; nil entries are skipped.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{}
	for _, c := range channels {
		if c != nil {
			d.channels = append(d.channels, c)
		}
	}
	return d
}

// Channels lists the configured channel names.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, c := range d.channels {
		names[i] = c.Name()
	}
	return names
}

// Notify sends to all channels, continuing past failures. The returned
// error joins every channel failure.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, c := range d.channels {
		if err := c.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}
