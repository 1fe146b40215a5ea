package npc

import (
	"context"
	"fmt"

	"github.com/edgard/npcbot/internal/conversation"
	"github.com/edgard/npcbot/internal/database"
	"github.com/edgard/npcbot/internal/world"
)

func (a *Agent) handleConnection(ctx context.Context, ev world.Event) {
	if ev.Connection == nil {
		return
	}
	if ev.Connection.Connected {
		a.connected.Store(true)
		a.log.InfoContext(ctx, "NPC connected to world")
		return
	}

	a.connected.Store(false)
	cleared := a.store.Reset()
	a.log.WarnContext(ctx, "NPC lost its world connection", "cleared_conversations", cleared, "error", ev.Connection.Err)
	a.notify(ctx, fmt.Sprintf(a.deps.Messages.ConnectionLost, a.ID()))
}

func (a *Agent) handleMoves(ctx context.Context, ev world.Event) {
	playerID := ev.Context.PlayerID
	if ev.Moves == nil || playerID == "" || ev.Context.IsNPC {
		return
	}
	if a.store.Locate(playerID, ev.Moves.MapID) {
		a.resume(ctx, playerID)
	}
}

func (a *Agent) handleTrigger(ctx context.Context, ev world.Event) {
	playerID := ev.Context.PlayerID
	if ev.Trigger == nil || playerID == "" || ev.Context.IsNPC {
		return
	}

	p, ok := a.deps.Personas.ForObject(ev.Trigger.ClosestObject)
	if !ok || p.Name != a.deps.Persona.Name {
		a.log.DebugContext(ctx, "Ignoring trigger for another object", "object_id", ev.Trigger.ClosestObject)
		return
	}

	if a.store.Ensure(playerID) {
		a.resume(ctx, playerID)
	}

	mapID, ok := a.store.ClaimGreeting(playerID)
	if !ok {
		a.log.DebugContext(ctx, "Conversation already started, not greeting", "player_id", playerID)
		return
	}
	if mapID == "" {
		mapID = a.deps.Conversation.UnknownLocation
	}

	name := ev.Context.PlayerName
	if name == "" {
		name = a.deps.Conversation.FallbackPlayerName
	}
	if err := a.send(ctx, playerID, mapID, a.deps.Persona.Greet(name)); err != nil {
		a.log.ErrorContext(ctx, "Failed to send greeting", "player_id", playerID, "error", err)
	}
}

func (a *Agent) handleChat(ctx context.Context, ev world.Event) {
	chat := ev.Chat
	if chat == nil {
		return
	}

	var playerID string
	var role conversation.Role
	if ev.Context.IsNPC {
		if chat.SenderID != "" && chat.SenderID != a.ID() {
			return
		}
		playerID, role = chat.RecipientID, conversation.RoleBot
	} else {
		if chat.RecipientID != "" && chat.RecipientID != a.ID() {
			return
		}
		playerID, role = chat.SenderID, conversation.RolePlayer
		if playerID == "" {
			playerID = ev.Context.PlayerID
		}
	}
	if playerID == "" {
		a.log.WarnContext(ctx, "Dropping chat without a resolvable player", "is_npc", ev.Context.IsNPC)
		return
	}

	if a.store.Ensure(playerID) {
		a.resume(ctx, playerID)
	}
	st, err := a.store.Append(playerID, role, chat.Contents)
	if err != nil {
		a.log.ErrorContext(ctx, "Failed to append chat", "player_id", playerID, "error", err)
		return
	}
	a.record(ctx, playerID, role, chat.Contents, st.MapID)
	a.log.DebugContext(ctx, "Chat appended", "player_id", playerID, "role", role, "phase", st.Phase(), "messages", len(st.Messages))

	if role == conversation.RolePlayer {
		a.scheduleReply(ctx, playerID)
	}
}

func (a *Agent) handleExit(ctx context.Context, ev world.Event) {
	playerID := ev.Context.PlayerID
	if playerID == "" || ev.Context.IsNPC {
		return
	}
	if a.store.Remove(playerID) {
		a.log.DebugContext(ctx, "Conversation closed on player exit", "player_id", playerID)
	}
}

// resume preloads archived history into a freshly created conversation.
func (a *Agent) resume(ctx context.Context, playerID string) {
	if !a.deps.Conversation.ResumeHistory || a.deps.Transcripts == nil {
		return
	}

	records, err := a.deps.Transcripts.GetRecentMessages(ctx, a.ID(), playerID, a.deps.Conversation.ResumeLimit)
	if err != nil {
		a.log.WarnContext(ctx, "Failed to load archived conversation", "player_id", playerID, "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	history := make([]conversation.Message, 0, len(records))
	for _, r := range records {
		history = append(history, conversation.Message{Role: conversation.Role(r.Role), Text: r.Content, At: r.CreatedAt})
	}
	if a.store.Preload(playerID, history) {
		a.log.DebugContext(ctx, "Resumed archived conversation", "player_id", playerID, "messages", len(history))
	}
}

func (a *Agent) record(ctx context.Context, playerID string, role conversation.Role, text, mapID string) {
	if a.deps.Transcripts == nil {
		return
	}
	msg := &database.TranscriptMessage{
		NPCID:     a.ID(),
		PlayerID:  playerID,
		Role:      string(role),
		Content:   text,
		MapID:     mapID,
		CreatedAt: a.now(),
	}
	if err := a.deps.Transcripts.SaveMessage(ctx, msg); err != nil {
		a.log.WarnContext(ctx, "Failed to archive chat", "player_id", playerID, "error", err)
	}
}

func (a *Agent) send(ctx context.Context, playerID, mapID, text string) error {
	return a.deps.Connector.Chat(ctx, world.ChatParams{
		RecipientID: playerID,
		MapID:       mapID,
		Contents:    text,
	})
}
