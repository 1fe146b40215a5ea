// Package handlers contains the operator console's Telegram command handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly rejects commands from anyone but the configured operator.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	log := deps.Logger.With("middleware", "admin_only")
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}
			if userID := update.Message.From.ID; userID != deps.Config.Telegram.AdminUserID {
				chatID := update.Message.Chat.ID
				log.WarnContext(ctx, "Unauthorized console access", "user_id", userID, "chat_id", chatID)
				reply(ctx, b, log, chatID, deps.Config.Messages.NotAuthorized)
				return
			}
			next(ctx, b, update)
		}
	}
}
