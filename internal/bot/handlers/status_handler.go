package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/npcbot/internal/conversation"
	"github.com/edgard/npcbot/internal/npc"
)

const maxListedPlayers = 10

// NewStatusHandler returns a handler for the /status command.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	log := deps.Logger.With("handler", "status")
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if chatID, ok := commandChat(ctx, log, update); ok {
			reply(ctx, b, log, chatID, FormatStatus(deps.Config.Messages.StatusHeader, deps.Fleet.Statuses()))
		}
	}
}

// FormatStatus renders one block per NPC under header.
func FormatStatus(header string, statuses []npc.Status) string {
	var sb strings.Builder
	sb.WriteString(header)

	if len(statuses) == 0 {
		sb.WriteString("No NPCs configured.")
		return sb.String()
	}

	for i, s := range statuses {
		if i > 0 {
			sb.WriteString("\n")
		}
		state := "offline"
		if s.Connected {
			state = "online"
		}
		fmt.Fprintf(&sb, "%s (%s): %s, %d conversation(s)", s.NPCID, s.Persona, state, s.Conversations)
		if awaiting := s.Phases[conversation.PhaseAwaitingReply]; awaiting > 0 {
			fmt.Fprintf(&sb, ", %d awaiting reply", awaiting)
		}
		sb.WriteString("\n")

		players := s.PlayerIDs
		if len(players) == 0 {
			continue
		}
		more := 0
		if len(players) > maxListedPlayers {
			more = len(players) - maxListedPlayers
			players = players[:maxListedPlayers]
		}
		sb.WriteString("  players: ")
		sb.WriteString(strings.Join(players, ", "))
		if more > 0 {
			fmt.Fprintf(&sb, " (+%d more)", more)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
