package handlers

import (
	"context"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// commandChat returns the chat a command came from, or false for updates that
// carry no message.
func commandChat(ctx context.Context, log *slog.Logger, update *models.Update) (int64, bool) {
	if update.Message == nil {
		log.WarnContext(ctx, "Command received update with nil message", "update_id", update.ID)
		return 0, false
	}
	return update.Message.Chat.ID, true
}

// reply sends text to chatID and logs delivery failures.
func reply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send console reply", "error", err, "chat_id", chatID)
	}
}
