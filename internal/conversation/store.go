package conversation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrNoConversation is returned when an operation requires an existing
// conversation state for the player.
var ErrNoConversation = errors.New("no conversation state for player")

// Store holds at most one State per player for a single NPC identity.
// It is safe for concurrent use: the event loop, reply workers, scheduled
// eviction and operator commands all touch it.
type Store struct {
	mu         sync.Mutex
	states     map[string]*State
	now        func() time.Time
	generation uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for LastActivity and message
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		states: make(map[string]*State),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ensureLocked returns the state for playerID, creating it if needed.
// The caller must hold s.mu.
func (s *Store) ensureLocked(playerID string) (*State, bool) {
	if st, ok := s.states[playerID]; ok {
		return st, false
	}
	s.generation++
	st := &State{PlayerID: playerID, LastActivity: s.now(), Generation: s.generation}
	s.states[playerID] = st
	return st, true
}

// Ensure creates an empty state for the player if none exists and reports
// whether it was created.
func (s *Store) Ensure(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, created := s.ensureLocked(playerID)
	st.LastActivity = s.now()
	return created
}

// Locate records the player's current map, creating the state if needed.
// An empty mapID only creates the state and leaves any known location as is.
func (s *Store) Locate(playerID, mapID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, created := s.ensureLocked(playerID)
	if mapID != "" {
		st.MapID = mapID
	}
	st.LastActivity = s.now()
	return created
}

// Append adds a message to the player's conversation in arrival order.
// A player-authored message arriving while a reply is in flight marks that
// reply as stale.
func (s *Store) Append(playerID string, role Role, text string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok {
		return State{}, ErrNoConversation
	}
	now := s.now()
	st.Messages = append(st.Messages, Message{Role: role, Text: text, At: now})
	st.LastActivity = now
	if role == RolePlayer && st.AwaitingReply {
		st.replyStale = true
	}
	return st.clone(), nil
}

// Preload seeds an existing conversation that has no messages yet with
// previously archived history. It is a no-op once the conversation has
// started.
func (s *Store) Preload(playerID string, history []Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok || len(st.Messages) > 0 || len(history) == 0 {
		return false
	}
	st.Messages = slices.Clone(history)
	return true
}

// Get returns a copy of the player's state.
func (s *Store) Get(playerID string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok {
		return State{}, false
	}
	return st.clone(), true
}

// ClaimGreeting marks the player as greeted when the conversation exists,
// has no messages and was never greeted. It returns the known map id, which
// is empty when no movement has been observed.
func (s *Store) ClaimGreeting(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok || st.Greeted || len(st.Messages) > 0 {
		return "", false
	}
	st.Greeted = true
	st.LastActivity = s.now()
	return st.MapID, true
}

// Current returns a copy of the player's state if it is still the
// generation given.
func (s *Store) Current(playerID string, generation uint64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok || st.Generation != generation {
		return State{}, false
	}
	return st.clone(), true
}

// BeginReply marks the conversation as awaiting a reply and returns the
// context and generation the reply worker must use. It returns false when a
// reply is already in flight; in that case the in-flight reply is marked
// stale so its worker regenerates once it finishes. The returned context is
// cancelled when the conversation is removed.
func (s *Store) BeginReply(ctx context.Context, playerID string) (context.Context, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok {
		return nil, 0, false
	}
	if st.AwaitingReply {
		st.replyStale = true
		return nil, 0, false
	}
	replyCtx, cancel := context.WithCancel(ctx)
	st.AwaitingReply = true
	st.replyStale = false
	st.cancelReply = cancel
	return replyCtx, st.Generation, true
}

// FinishReply ends the in-flight reply of the given generation. It returns
// true when newer player messages arrived meanwhile; the conversation then
// stays awaiting and the caller must generate another reply. A conversation
// that was removed or replaced is left untouched.
func (s *Store) FinishReply(playerID string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok || st.Generation != generation {
		return false
	}
	if st.replyStale {
		st.replyStale = false
		return true
	}
	st.AwaitingReply = false
	st.drop()
	return false
}

// Remove deletes the player's conversation.
func (s *Store) Remove(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[playerID]
	if !ok {
		return false
	}
	st.drop()
	delete(s.states, playerID)
	return true
}

// Reset deletes every conversation and returns how many were removed.
func (s *Store) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.states)
	for _, st := range s.states {
		st.drop()
	}
	s.states = make(map[string]*State)
	return n
}

// EvictIdle removes conversations whose last activity is before cutoff.
// Conversations awaiting a reply are kept.
func (s *Store) EvictIdle(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for id, st := range s.states {
		if st.AwaitingReply || !st.LastActivity.Before(cutoff) {
			continue
		}
		st.drop()
		delete(s.states, id)
		evicted = append(evicted, id)
	}
	slices.Sort(evicted)
	return evicted
}

// Len returns the number of tracked conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// PlayerIDs returns the tracked player ids in sorted order.
func (s *Store) PlayerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Phases counts the tracked conversations by lifecycle phase.
func (s *Store) Phases() map[Phase]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[Phase]int, 3)
	for _, st := range s.states {
		counts[st.Phase()]++
	}
	return counts
}
