// Package conversation tracks per-player conversation state for a single NPC
// identity and renders that state into completion prompts.
package conversation

import (
	"context"
	"slices"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleBot    Role = "bot"
	RolePlayer Role = "player"
)

// Message is one chat line in a conversation, in arrival order.
type Message struct {
	Role Role
	Text string
	At   time.Time
}

// Phase is the coarse position of a conversation in its lifecycle.
type Phase string

const (
	PhaseLocated       Phase = "located"
	PhaseGreeted       Phase = "greeted"
	PhaseAwaitingReply Phase = "awaiting_reply"
)

// State is the conversation record for one player. Values returned by Store
// are copies; mutating them has no effect on the store.
type State struct {
	PlayerID      string
	MapID         string
	Messages      []Message
	Greeted       bool
	AwaitingReply bool
	LastActivity  time.Time
	// Generation identifies this lifetime of the player's conversation. A
	// state removed and created again gets a new generation.
	Generation uint64

	// replyStale is set when a player message arrives while a reply is being
	// generated.
	replyStale bool
	// cancelReply aborts the in-flight reply when the state is dropped.
	cancelReply context.CancelFunc
}

// Phase derives the lifecycle phase from the state fields.
func (s State) Phase() Phase {
	switch {
	case s.AwaitingReply:
		return PhaseAwaitingReply
	case s.Greeted || len(s.Messages) > 0:
		return PhaseGreeted
	default:
		return PhaseLocated
	}
}

func (s *State) clone() State {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	c.cancelReply = nil
	return c
}

// drop releases the in-flight reply, if any, of a state leaving the store.
func (s *State) drop() {
	if s.cancelReply != nil {
		s.cancelReply()
		s.cancelReply = nil
	}
}
