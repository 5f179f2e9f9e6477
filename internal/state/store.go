// Package state holds per-channel conversation memory.
//
// Everything lives in process memory; nothing is persisted across restarts.
package state

import (
	"sync"
)

// Turn is a single conversation entry.
type Turn struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// ChannelState tracks one channel's conversation memory and flags.
type ChannelState struct {
	history  []Turn
	toggleOn bool
	active   bool
}

// Store manages ChannelState entries keyed by channel ID.
// Channel states are created lazily on first touch.
type Store struct {
	mu       sync.RWMutex
	channels map[string]*ChannelState
	bound    int
}

// HistoryBound returns the entry cap for a configured turn count:
// two entries per turn, never below six.
func HistoryBound(maxTurns int) int {
	b := maxTurns * 2
	if b < 6 {
		return 6
	}
	return b
}

// NewStore creates a store whose histories hold at most
// HistoryBound(maxTurns) entries.
func NewStore(maxTurns int) *Store {
	return &Store{
		channels: make(map[string]*ChannelState),
		bound:    HistoryBound(maxTurns),
	}
}

// get returns the state for a channel, creating it if needed.
// Caller must hold mu for writing.
func (s *Store) get(channelID string) *ChannelState {
	st, ok := s.channels[channelID]
	if !ok {
		st = &ChannelState{toggleOn: true}
		s.channels[channelID] = st
	}
	return st
}

// Append adds a turn to a channel's history, evicting the oldest
// entries beyond the bound.
func (s *Store) Append(channelID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(channelID)
	st.history = append(st.history, turn)
	if excess := len(st.history) - s.bound; excess > 0 {
		st.history = append([]Turn(nil), st.history[excess:]...)
	}
}

// History returns a copy of a channel's history, oldest first.
func (s *Store) History(channelID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.channels[channelID]
	if !ok {
		return nil
	}
	out := make([]Turn, len(st.history))
	copy(out, st.history)
	return out
}

// Toggle flips a channel's style-guidance flag and returns the new value.
func (s *Store) Toggle(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(channelID)
	st.toggleOn = !st.toggleOn
	return st.toggleOn
}

// ToggleOn reports a channel's style-guidance flag. Untouched channels
// default to on.
func (s *Store) ToggleOn(channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.channels[channelID]; ok {
		return st.toggleOn
	}
	return true
}

// MarkActive flags a channel as having seen traffic. The flag never
// clears for the lifetime of the store.
func (s *Store) MarkActive(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(channelID).active = true
}

// ActiveChannels returns the IDs of channels marked active, in no
// particular order.
func (s *Store) ActiveChannels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id, st := range s.channels {
		if st.active {
			out = append(out, id)
		}
	}
	return out
}

// Resize changes the history bound, trimming every channel's history to
// its newest entries when the new bound is smaller.
func (s *Store) Resize(maxTurns int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bound = HistoryBound(maxTurns)
	for _, st := range s.channels {
		if excess := len(st.history) - s.bound; excess > 0 {
			st.history = append([]Turn(nil), st.history[excess:]...)
		}
	}
}
