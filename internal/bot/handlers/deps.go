package handlers

import (
	"log/slog"

	"github.com/edgard/npcbot/internal/config"
	"github.com/edgard/npcbot/internal/npc"
)

// Fleet is the view of the running NPC agents the console operates on.
type Fleet interface {
	Statuses() []npc.Status
	ResetConversations() int
}

// HandlerDeps provides dependencies for operator console command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Fleet  Fleet
}

var _ Fleet = npc.Fleet(nil)
