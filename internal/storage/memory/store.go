// Package memory is a process-local store used by tests and by the server's
// --in-memory mode.
package memory

import (
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
)

// Store holds admins, events and content blocks. Writers are serialized by
// writeMu; a transaction works on a private copy that replaces the live
// state on commit, so readers see either the old or the new data.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state
}

type state struct {
	admins map[string]admins.Admin
	events map[string]events.Event
	blocks map[string][]events.ContentBlock
}

func New() *Store {
	return &Store{current: &state{
		admins: map[string]admins.Admin{},
		events: map[string]events.Event{},
		blocks: map[string][]events.ContentBlock{},
	}}
}

func (s *Store) Admins() *AdminRepository {
	return &AdminRepository{store: s}
}

func (s *Store) Events() *EventRepository {
	return &EventRepository{store: s}
}

func (st *state) clone() *state {
	out := &state{
		admins: make(map[string]admins.Admin, len(st.admins)),
		events: make(map[string]events.Event, len(st.events)),
		blocks: make(map[string][]events.ContentBlock, len(st.blocks)),
	}
	for k, v := range st.admins {
		out.admins[k] = v
	}
	for k, v := range st.events {
		out.events[k] = v
	}
	for k, v := range st.blocks {
		out.blocks[k] = append([]events.ContentBlock(nil), v...)
	}
	return out
}

// read runs fn against the live state under a read lock.
func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.current)
}

// write runs fn against the live state with writers excluded.
func (s *Store) write(fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.current)
}

// transact runs fn against a copy of the state and publishes it when fn
// succeeds.
func (s *Store) transact(fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	draft := s.current.clone()
	s.mu.RUnlock()

	if err := fn(draft); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = draft
	s.mu.Unlock()
	return nil
}
