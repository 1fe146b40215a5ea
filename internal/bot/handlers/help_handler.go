package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	log := deps.Logger.With("handler", "help")
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if chatID, ok := commandChat(ctx, log, update); ok {
			reply(ctx, b, log, chatID, deps.Config.Messages.Help)
		}
	}
}
