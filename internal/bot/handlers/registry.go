package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	// Description is shown in the Telegram command menu.
	Description string
}

// RegisterAllCommands returns the console commands keyed by their slash form.
// Every command is restricted to the configured operator.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	commands := map[string]struct {
		newHandler  func(HandlerDeps) tgbot.HandlerFunc
		description string
	}{
		"help":   {NewHelpHandler, "List console commands"},
		"status": {NewStatusHandler, "Show NPC connections and conversations"},
		"reset":  {NewResetHandler, "Drop every in-memory conversation"},
	}

	admin := []tgbot.Middleware{AdminOnly(deps)}
	handlers := make(map[string]RegisteredHandler, len(commands))
	for name, cmd := range commands {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     cmd.newHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  admin,
			Description: cmd.description,
		}
	}
	return handlers
}
