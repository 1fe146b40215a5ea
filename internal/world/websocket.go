package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope types exchanged with the platform gateway.
const (
	msgAuth  = "auth"
	msgEnter = "enter"
	msgChat  = "chat"
	msgReady = "ready"
	msgError = "error"
)

var (
	// ErrNotConnected is returned when the session is used before Connect.
	ErrNotConnected = errors.New("world session not connected")
	// ErrHandshake is returned when the gateway rejects the session.
	ErrHandshake = errors.New("world handshake failed")
)

type clientEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type serverEnvelope struct {
	Type    string          `json:"type"`
	Context EventContext    `json:"context"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error,omitempty"`
}

type authPayload struct {
	SpaceID string `json:"spaceId"`
	NPCID   string `json:"npcId"`
	APIKey  string `json:"apiKey"`
}

type enterPayload struct {
	IsNPC bool `json:"isNpc"`
}

type chatPayload struct {
	Recipient      string   `json:"recipient"`
	LocalPlayerIDs []string `json:"localPlayerIds"`
	MapID          string   `json:"mapId"`
	Contents       string   `json:"contents"`
}

// WebsocketConfig configures a WebsocketConnector.
type WebsocketConfig struct {
	Endpoint         string
	SpaceID          string
	NPCID            string
	APIKey           string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	EventBuffer      int
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// WebsocketConnector is a Connector speaking JSON envelopes over a websocket.
type WebsocketConnector struct {
	cfg    WebsocketConfig
	logger *slog.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu        sync.Mutex
	events    chan Event
	closed    chan struct{}
	closeOnce sync.Once
}

// NewWebsocketConnector creates an unconnected session for one NPC identity.
func NewWebsocketConnector(cfg WebsocketConfig, logger *slog.Logger) (*WebsocketConnector, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("world endpoint cannot be empty")
	}
	if cfg.NPCID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("npc id and api key are required")
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebsocketConnector{
		cfg:    cfg,
		logger: logger.With("component", "world_connector", "npc_id", cfg.NPCID),
		closed: make(chan struct{}),
	}, nil
}

// ID returns the NPC identity.
func (c *WebsocketConnector) ID() string {
	return c.cfg.NPCID
}

// Connect dials the gateway, authenticates, enters the space as an NPC and
// waits for the gateway to report the session ready.
func (c *WebsocketConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("world session already connected")
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	conn, _, err := c.cfg.Dialer.DialContext(dialCtx, c.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial world gateway: %w", err)
	}
	c.conn = conn

	if err := c.handshake(); err != nil {
		_ = conn.Close()
		c.conn = nil
		return err
	}

	c.events = make(chan Event, c.cfg.EventBuffer)
	c.emit(Event{Kind: EventConnection, ReceivedAt: time.Now(), Connection: &Connection{Connected: true}})
	go c.readLoop()

	c.logger.Info("Connected to world", "space_id", c.cfg.SpaceID)
	return nil
}

func (c *WebsocketConnector) handshake() error {
	if err := c.send(msgAuth, authPayload{SpaceID: c.cfg.SpaceID, NPCID: c.cfg.NPCID, APIKey: c.cfg.APIKey}); err != nil {
		return fmt.Errorf("failed to send auth: %w", err)
	}
	if err := c.send(msgEnter, enterPayload{IsNPC: true}); err != nil {
		return fmt.Errorf("failed to send enter: %w", err)
	}

	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set handshake deadline: %w", err)
	}
	for {
		var env serverEnvelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("%w: %v", ErrHandshake, err)
		}
		switch env.Type {
		case msgReady:
			return c.conn.SetReadDeadline(time.Time{})
		case msgError:
			return fmt.Errorf("%w: %s", ErrHandshake, env.Error)
		default:
			c.logger.Debug("Ignoring envelope before ready", "type", env.Type)
		}
	}
}

// Listen returns the inbound event channel.
func (c *WebsocketConnector) Listen(ctx context.Context) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		return nil, ErrNotConnected
	}
	return c.events, nil
}

// Chat sends a chat message. A nil LocalPlayerIDs is sent as an empty list.
func (c *WebsocketConnector) Chat(ctx context.Context, params ChatParams) error {
	c.mu.Lock()
	connected := c.conn != nil
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	local := params.LocalPlayerIDs
	if local == nil {
		local = []string{}
	}
	return c.send(msgChat, chatPayload{
		Recipient:      params.RecipientID,
		LocalPlayerIDs: local,
		MapID:          params.MapID,
		Contents:       params.Contents,
	})
}

// Close ends the session. It is safe to call more than once.
func (c *WebsocketConnector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout))
		c.writeMu.Unlock()
		err = conn.Close()
	})
	return err
}

func (c *WebsocketConnector) send(typ string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(clientEnvelope{Type: typ, Payload: payload})
}

func (c *WebsocketConnector) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.closed:
		return false
	}
}

func (c *WebsocketConnector) readLoop() {
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				c.logger.Info("World session closed")
			default:
				c.logger.Error("World session lost", "error", err)
			}
			c.emit(Event{Kind: EventConnection, ReceivedAt: time.Now(), Connection: &Connection{Connected: false, Err: err}})
			return
		}

		var env serverEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("Dropping malformed envelope", "error", err)
			continue
		}
		ev, ok, err := decodeEvent(env)
		if err != nil {
			c.logger.Warn("Dropping undecodable event", "type", env.Type, "error", err)
			continue
		}
		if !ok {
			c.logger.Debug("Ignoring unsupported envelope", "type", env.Type)
			continue
		}
		if !c.emit(ev) {
			return
		}
	}
}

// decodeEvent translates a gateway envelope into an Event. It reports false
// for envelope types that are not player events.
func decodeEvent(env serverEnvelope) (Event, bool, error) {
	ev := Event{Kind: EventKind(env.Type), Context: env.Context, ReceivedAt: time.Now()}

	var target any
	switch ev.Kind {
	case EventPlayerMoves:
		ev.Moves = &PlayerMoves{}
		target = ev.Moves
	case EventPlayerTriggersItem:
		ev.Trigger = &PlayerTriggersItem{}
		target = ev.Trigger
	case EventPlayerChats:
		ev.Chat = &PlayerChats{}
		target = ev.Chat
	case EventPlayerExits:
		ev.Exit = &PlayerExits{}
		target = ev.Exit
	default:
		return Event{}, false, nil
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, target); err != nil {
			return Event{}, false, err
		}
	}
	return ev, true, nil
}

var _ Connector = (*WebsocketConnector)(nil)
