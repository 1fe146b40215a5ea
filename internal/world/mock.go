package world

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MockConnector implements Connector for testing. It records sent chats and
// lets tests inject events with Emit. With echo enabled every sent chat is
// delivered back as a bot-authored chat event, as the platform does.
//
// Events are queued without bound and delivered in order by a pump
// goroutine, so Chat and Emit never block, even when called from the
// goroutine that drains the event channel.
type MockConnector struct {
	id string

	mu         sync.Mutex
	connected  bool
	closed     bool
	pumping    bool
	echo       bool
	connectErr error
	chatErr    error
	queue      []Event
	sent       []ChatParams

	events chan Event
	wake   chan struct{}
	done   chan struct{}
	stop   sync.Once
}

// NewMockConnector creates a MockConnector.
func NewMockConnector(id string) *MockConnector {
	return &MockConnector{
		id:     id,
		events: make(chan Event),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// SetEcho toggles echoing sent chats back as events.
func (m *MockConnector) SetEcho(echo bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = echo
}

// SetConnectError makes Connect fail with err.
func (m *MockConnector) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SetChatError makes Chat fail with err.
func (m *MockConnector) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatErr = err
}

// ID returns the NPC identity.
func (m *MockConnector) ID() string {
	return m.id
}

// Connect marks the session connected, starts event delivery and queues a
// connection event.
func (m *MockConnector) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock connector: already closed")
	}
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	m.pushLocked(Event{Kind: EventConnection, Connection: &Connection{Connected: true}})
	if !m.pumping {
		m.pumping = true
		go m.pump()
	}
	return nil
}

// Listen returns the event channel. Must be called after Connect.
func (m *MockConnector) Listen(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	return m.events, nil
}

// Chat records the message and echoes it when enabled.
func (m *MockConnector) Chat(ctx context.Context, params ChatParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected || m.closed {
		return ErrNotConnected
	}
	if m.chatErr != nil {
		return m.chatErr
	}
	params.LocalPlayerIDs = slices.Clone(params.LocalPlayerIDs)
	m.sent = append(m.sent, params)

	if m.echo {
		m.pushLocked(Event{
			Kind:    EventPlayerChats,
			Context: EventContext{PlayerID: m.id, IsNPC: true},
			Chat: &PlayerChats{
				SenderID:    m.id,
				RecipientID: params.RecipientID,
				Contents:    params.Contents,
			},
		})
	}
	return nil
}

// Emit injects an inbound event.
func (m *MockConnector) Emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.pushLocked(ev)
}

// Disconnect simulates losing the session: a connection-lost event is
// delivered after every queued event and the channel is then closed.
func (m *MockConnector) Disconnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.pushLocked(Event{Kind: EventConnection, Connection: &Connection{Connected: false, Err: err}})
	m.closed = true
	if !m.pumping {
		m.pumping = true
		go m.pump()
	}
}

// Close stops delivery, dropping undelivered events, and closes the channel.
func (m *MockConnector) Close() error {
	m.mu.Lock()
	m.closed = true
	pumping := m.pumping
	m.pumping = true
	m.mu.Unlock()

	m.stop.Do(func() {
		close(m.done)
		if !pumping {
			close(m.events)
		}
	})
	return nil
}

// pushLocked queues ev for delivery. The caller must hold m.mu.
func (m *MockConnector) pushLocked(ev Event) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	m.queue = append(m.queue, ev)
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// pump delivers queued events in order until Close, or until the queue is
// drained after Disconnect.
func (m *MockConnector) pump() {
	defer close(m.events)
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			closed := m.closed
			m.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-m.wake:
				continue
			case <-m.done:
				return
			}
		}
		ev := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		select {
		case m.events <- ev:
		case <-m.done:
			return
		}
	}
}

// Sent returns a copy of the chats sent so far.
func (m *MockConnector) Sent() []ChatParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

var _ Connector = (*MockConnector)(nil)
