package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewResetHandler returns a handler for the /reset command, which drops every
// in-memory conversation across the fleet.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	log := deps.Logger.With("handler", "reset")
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		chatID, ok := commandChat(ctx, log, update)
		if !ok {
			return
		}
		cleared := deps.Fleet.ResetConversations()
		log.InfoContext(ctx, "Operator reset all conversations", "chat_id", chatID, "cleared", cleared)
		reply(ctx, b, log, chatID, fmt.Sprintf(deps.Config.Messages.ResetConfirm, cleared))
	}
}
