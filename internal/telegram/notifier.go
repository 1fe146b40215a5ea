package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Notifier sends operator notifications to the admin's private chat.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
	log    *slog.Logger
}

// NewNotifier creates a Notifier that writes to chatID.
func NewNotifier(b *bot.Bot, chatID int64, logger *slog.Logger) (*Notifier, error) {
	if b == nil {
		return nil, fmt.Errorf("bot instance cannot be nil")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("notification chat id cannot be zero")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{bot: b, chatID: chatID, log: logger.With("component", "telegram_notifier")}, nil
}

// Notify sends text to the admin chat.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if _, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: n.chatID, Text: text}); err != nil {
		n.log.ErrorContext(ctx, "Failed to send notification", "chat_id", n.chatID, "error", err)
		return fmt.Errorf("failed to send notification: %w", err)
	}
	n.log.DebugContext(ctx, "Notification sent", "chat_id", n.chatID)
	return nil
}
