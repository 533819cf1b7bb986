package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/cwygoda/playlistbot/internal/domain"
)

// sender is the subset of *tgbotapi.BotAPI used to deliver messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBotAPI connects to the Bot API with an HTTP client whose timeout covers
// both long polling and multi-gigabyte uploads.
func NewBotAPI(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	return api, nil
}

// Client implements domain.Transfer and domain.Notifier over the Bot API.
// Status messages are rate limited to stay under the platform's flood
// limits; uploads are not.
type Client struct {
	api     sender
	limiter *rate.Limiter
}

// NewClient creates a client sending at most perSecond status messages.
func NewClient(api sender, perSecond float64) *Client {
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Notify sends plain status text to a chat.
func (c *Client) Notify(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "")
}

// NotifyMarkdown sends Markdown formatted text to a chat.
func (c *Client) NotifyMarkdown(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, tgbotapi.ModeMarkdown)
}

func (c *Client) send(ctx context.Context, chatID int64, text, parseMode string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// SendVideo uploads a local file to a channel as a streamable video.
func (c *Client) SendVideo(ctx context.Context, channel domain.ChannelRef, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(videoConfig(channel, path, caption)); err != nil {
		return fmt.Errorf("send video to %s: %w", channel, err)
	}
	return nil
}

func videoConfig(channel domain.ChannelRef, path, caption string) tgbotapi.VideoConfig {
	cfg := tgbotapi.NewVideo(channel.ID, tgbotapi.FilePath(path))
	if channel.Username != "" {
		cfg.ChatID = 0
		cfg.ChannelUsername = channel.Username
	}
	cfg.Caption = caption
	cfg.SupportsStreaming = true
	return cfg
}
