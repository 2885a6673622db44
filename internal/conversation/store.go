package conversation

import (
	"sync"
	"time"
)

// State is the tracked mode of one conversation.
type State struct {
	Mode         Mode
	LastActivity time.Time
}

// Store keeps the state of conversations that are in a sticky mode. A
// conversation without an entry is in None.
type Store struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{states: make(map[int64]State)}
}

// Get returns the state for id, if any.
func (s *Store) Get(id int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return st, ok
}

// Len reports the number of conversations in a sticky mode.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Update runs fn with the current state of id under the store lock and
// applies the returned state. Returning a non-sticky state removes the entry;
// returning keep=false leaves the store untouched.
func (s *Store) Update(id int64, fn func(cur State, ok bool) (next State, keep bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.states[id]
	next, keep := fn(cur, ok)
	if !keep {
		return
	}
	if !next.Mode.Sticky() {
		delete(s.states, id)
		return
	}
	s.states[id] = next
}

// Delete removes the entry for id.
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
}
