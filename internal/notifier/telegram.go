// Package notifier delivers operational digests to a Telegram chat.
package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTelegramURL is the public Bot API endpoint.
const DefaultTelegramURL = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BaseURL   string
	BotToken  string
	ChatID    string
	// RetryBase is the first backoff step; it doubles per attempt.
	RetryBase time.Duration
	client    *resty.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// It returns nil when either the token or the chat is blank, and a nil
// notifier drops every message.
func NewTelegramNotifier(baseURL, botToken, chatID, proxyURL string) *TelegramNotifier {
	if botToken == "" || chatID == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	client := resty.New().SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BaseURL:   baseURL,
		BotToken:  botToken,
		ChatID:    chatID,
		RetryBase: time.Second,
		client:    client,
	}
}

// Send posts text to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	if t == nil {
		return nil
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	if t == nil {
		return nil
	}
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(ctx, text); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := t.backoff(i)
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

func (t *TelegramNotifier) backoff(attempt int) time.Duration {
	return t.RetryBase << uint(attempt)
}
