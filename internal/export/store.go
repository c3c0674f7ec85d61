package export

import (
	"sync"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// Store is the single source of truth for export status. It lives for the
// whole process, outside any UI tree, so a running export survives panel
// switches and remounts of whatever is observing it.
type Store struct {
	mu        sync.Mutex
	state     domain.ExportState
	listeners []storeListener
	nextID    uint64
}

type storeListener struct {
	id uint64
	fn func()
}

// NewStore creates a store in the idle state.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current state. The state object is replaced wholesale
// on every mutation, so callers may compare snapshots by value and never see
// a half-written update.
func (s *Store) Snapshot() domain.ExportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener invoked after every state change and returns
// a function that removes it. Listeners are notified synchronously in
// registration order.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, storeListener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// setProgress replaces the state. Exporting is derived from the progress
// pointer so the two fields can never disagree.
func (s *Store) setProgress(p *domain.ExportProgress) {
	s.mu.Lock()
	s.state = domain.ExportState{Progress: p, Exporting: p != nil}
	fns := make([]func(), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// reset returns the store to the idle state.
func (s *Store) reset() {
	s.setProgress(nil)
}
