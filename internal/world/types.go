// Package world connects NPC identities to the virtual-world platform. It
// defines the events the platform delivers, the Connector abstraction over a
// live session, a websocket implementation and an in-memory mock.
package world

import (
	"context"
	"time"
)

// EventKind names a platform event.
type EventKind string

const (
	EventPlayerMoves        EventKind = "playerMoves"
	EventPlayerTriggersItem EventKind = "playerTriggersItem"
	EventPlayerChats        EventKind = "playerChats"
	EventPlayerExits        EventKind = "playerExits"
	// EventConnection is emitted by the connector itself when the session is
	// established or lost.
	EventConnection EventKind = "connection"
)

// EventContext is the metadata the platform attaches to every player event.
type EventContext struct {
	SpaceID    string `json:"spaceId,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	// IsNPC is set when the acting player is a bot speaker.
	IsNPC bool `json:"isNpc,omitempty"`
}

// PlayerMoves is delivered when a player moves. MapID is empty when the
// movement stays on the same map and the platform omits it.
type PlayerMoves struct {
	MapID     string `json:"mapId,omitempty"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction,omitempty"`
}

// PlayerTriggersItem is delivered when a player interacts with the object
// closest to them.
type PlayerTriggersItem struct {
	ClosestObject string `json:"closestObject,omitempty"`
}

// PlayerChats is delivered for every chat message the identity can observe,
// including the ones it sent itself.
type PlayerChats struct {
	SenderID       string   `json:"senderId"`
	RecipientID    string   `json:"recipient"`
	SenderName     string   `json:"senderName,omitempty"`
	Contents       string   `json:"contents"`
	LocalPlayerIDs []string `json:"localPlayerIds,omitempty"`
}

// PlayerExits is delivered when a player leaves the space.
type PlayerExits struct {
	MapID string `json:"mapId,omitempty"`
}

// Connection reports a session state change.
type Connection struct {
	Connected bool
	Err       error
}

// Event is a single inbound notification. Exactly one of the payload
// pointers matching Kind is set.
type Event struct {
	Kind       EventKind
	Context    EventContext
	ReceivedAt time.Time

	Moves      *PlayerMoves
	Trigger    *PlayerTriggersItem
	Chat       *PlayerChats
	Exit       *PlayerExits
	Connection *Connection
}

// ChatParams is an outbound chat message.
type ChatParams struct {
	RecipientID string
	// LocalPlayerIDs is sent as an empty list for direct messages.
	LocalPlayerIDs []string
	MapID          string
	Contents       string
}

// Connector is a live session of one NPC identity with the platform.
type Connector interface {
	// ID returns the NPC identity this session belongs to.
	ID() string

	// Connect establishes the session and enters the space as an NPC.
	Connect(ctx context.Context) error

	// Listen returns the inbound event channel. The channel is closed when
	// the session ends. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan Event, error)

	// Chat sends a chat message.
	Chat(ctx context.Context, params ChatParams) error

	// Close ends the session.
	Close() error
}
