package npc

import (
	"context"
	"strings"

	"github.com/edgard/npcbot/internal/conversation"
)

// scheduleReply starts a reply worker for the player unless one is already
// running, in which case that worker regenerates once it finishes.
func (a *Agent) scheduleReply(ctx context.Context, playerID string) {
	replyCtx, gen, ok := a.store.BeginReply(ctx, playerID)
	if !ok {
		a.log.DebugContext(ctx, "Reply in flight, coalescing", "player_id", playerID)
		return
	}

	a.replies.Add(1)
	go func() {
		defer a.replies.Done()
		for {
			a.reply(replyCtx, playerID, gen)
			if !a.store.FinishReply(playerID, gen) {
				return
			}
			a.log.DebugContext(ctx, "New messages arrived during reply, regenerating", "player_id", playerID)
		}
	}()
}

// reply generates and sends one completion against the current history of
// the conversation generation gen. Failures and empty completions are logged
// and nothing is sent. Nothing is sent either when the conversation was
// closed or replaced meanwhile.
func (a *Agent) reply(ctx context.Context, playerID string, gen uint64) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer a.sem.Release(1)

	st, ok := a.store.Current(playerID, gen)
	if !ok {
		return
	}

	prompt := conversation.BuildPrompt(a.deps.Persona.Description, st.Messages)
	text, err := a.deps.Completion.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			a.log.DebugContext(ctx, "Reply abandoned, conversation closed", "player_id", playerID)
			return
		}
		a.log.ErrorContext(ctx, "Completion failed, dropping turn", "player_id", playerID, "error", err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.log.WarnContext(ctx, "Completion was empty, dropping turn", "player_id", playerID)
		return
	}

	// Location may have changed while the completion was pending.
	current, ok := a.store.Current(playerID, gen)
	if !ok {
		a.log.InfoContext(ctx, "Conversation ended before reply was sent", "player_id", playerID)
		return
	}
	mapID := current.MapID
	if mapID == "" {
		mapID = a.deps.Conversation.UnknownLocation
	}

	if err := a.send(ctx, playerID, mapID, text); err != nil {
		a.log.ErrorContext(ctx, "Failed to send reply", "player_id", playerID, "error", err)
	}
}
