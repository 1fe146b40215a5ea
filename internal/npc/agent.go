// Package npc runs one in-character NPC: it consumes the NPC's world events,
// keeps per-player conversation state and answers players through the
// completion client.
package npc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/edgard/npcbot/internal/completion"
	"github.com/edgard/npcbot/internal/config"
	"github.com/edgard/npcbot/internal/conversation"
	"github.com/edgard/npcbot/internal/database"
	"github.com/edgard/npcbot/internal/persona"
	"github.com/edgard/npcbot/internal/world"
)

// ErrConnect is returned by Run when the NPC could not join the world.
var ErrConnect = errors.New("npc failed to connect")

// Notifier delivers operator notifications.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Deps contains the dependencies of an Agent.
type Deps struct {
	Logger     *slog.Logger
	Connector  world.Connector
	Completion completion.Client
	Persona    persona.Persona
	Personas   *persona.Directory
	// Transcripts is optional; when nil nothing is archived.
	Transcripts database.Store
	// Notifier is optional.
	Notifier     Notifier
	Conversation config.ConversationConfig
	Messages     config.MessagesConfig
	Middleware   []world.Middleware
	Clock        func() time.Time
}

// Status is a point-in-time view of an agent.
type Status struct {
	NPCID         string
	Persona       string
	Connected     bool
	Conversations int
	PlayerIDs     []string
	// Phases counts the conversations by lifecycle phase.
	Phases map[conversation.Phase]int
}

// Agent drives a single NPC identity.
type Agent struct {
	deps   Deps
	log    *slog.Logger
	store  *conversation.Store
	router *world.Router
	sem    *semaphore.Weighted
	now    func() time.Time

	connected atomic.Bool
	replies   sync.WaitGroup
}

// NewAgent validates deps and wires the event handlers.
func NewAgent(deps Deps) (*Agent, error) {
	if deps.Connector == nil {
		return nil, fmt.Errorf("connector is required")
	}
	if deps.Completion == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if deps.Personas == nil {
		return nil, fmt.Errorf("persona directory is required")
	}
	if deps.Persona.Name == "" {
		return nil, fmt.Errorf("persona is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Conversation.UnknownLocation == "" {
		deps.Conversation.UnknownLocation = "unknown"
	}
	if deps.Conversation.FallbackPlayerName == "" {
		deps.Conversation.FallbackPlayerName = "there"
	}
	maxReplies := deps.Conversation.MaxConcurrentReplies
	if maxReplies <= 0 {
		maxReplies = 1
	}

	log := deps.Logger.With("component", "npc", "npc_id", deps.Connector.ID(), "persona", deps.Persona.Name)
	a := &Agent{
		deps:   deps,
		log:    log,
		store:  conversation.NewStore(conversation.WithClock(deps.Clock)),
		router: world.NewRouter(log, deps.Middleware...),
		sem:    semaphore.NewWeighted(maxReplies),
		now:    deps.Clock,
	}
	a.registerHandlers()
	return a, nil
}

func (a *Agent) registerHandlers() {
	a.router.Handle(world.EventConnection, a.handleConnection)
	a.router.Handle(world.EventPlayerMoves, a.handleMoves)
	a.router.Handle(world.EventPlayerTriggersItem, a.handleTrigger)
	a.router.Handle(world.EventPlayerChats, a.handleChat)
	a.router.Handle(world.EventPlayerExits, a.handleExit)
}

// ID returns the NPC identity.
func (a *Agent) ID() string {
	return a.deps.Connector.ID()
}

// Run connects the NPC and processes its events until ctx is cancelled or
// the session ends. In-flight replies are awaited before returning.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.deps.Connector.Connect(ctx); err != nil {
		a.log.ErrorContext(ctx, "Failed to connect NPC to world", "error", err)
		a.notify(ctx, fmt.Sprintf(a.deps.Messages.ConnectFailed, a.ID(), err))
		return fmt.Errorf("%w: %s: %w", ErrConnect, a.ID(), err)
	}
	defer func() {
		if err := a.deps.Connector.Close(); err != nil {
			a.log.WarnContext(ctx, "Error closing world session", "error", err)
		}
	}()

	events, err := a.deps.Connector.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen for world events: %w", err)
	}

	a.log.InfoContext(ctx, "NPC started")
	defer a.replies.Wait()

	for {
		select {
		case <-ctx.Done():
			a.log.InfoContext(ctx, "NPC stopping")
			return nil
		case ev, ok := <-events:
			if !ok {
				a.log.InfoContext(ctx, "World event stream ended")
				return nil
			}
			a.router.Dispatch(ctx, ev)
		}
	}
}

// Status reports the agent's connection and conversation counts.
func (a *Agent) Status() Status {
	ids := a.store.PlayerIDs()
	return Status{
		NPCID:         a.ID(),
		Persona:       a.deps.Persona.Name,
		Connected:     a.connected.Load(),
		Conversations: len(ids),
		PlayerIDs:     ids,
		Phases:        a.store.Phases(),
	}
}

// Conversation returns a copy of the player's conversation state.
func (a *Agent) Conversation(playerID string) (conversation.State, bool) {
	return a.store.Get(playerID)
}

// ResetConversations drops every conversation and returns how many were
// removed.
func (a *Agent) ResetConversations() int {
	n := a.store.Reset()
	a.log.Info("Conversations reset", "count", n)
	return n
}

// EvictIdle removes conversations idle for longer than the configured TTL.
func (a *Agent) EvictIdle() []string {
	ttl := a.deps.Conversation.IdleTTL
	if ttl <= 0 {
		return nil
	}
	evicted := a.store.EvictIdle(a.now().Add(-ttl))
	if len(evicted) > 0 {
		a.log.Info("Evicted idle conversations", "count", len(evicted), "ttl", ttl)
	}
	return evicted
}

func (a *Agent) notify(ctx context.Context, text string) {
	if a.deps.Notifier == nil {
		return
	}
	if err := a.deps.Notifier.Notify(ctx, text); err != nil {
		a.log.WarnContext(ctx, "Failed to notify operator", "error", err)
	}
}
