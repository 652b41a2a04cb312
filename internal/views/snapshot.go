// package views implements the data views: events, marketplace and requests
package views

import "sync"

// Snapshot is the most recently fetched copy of a collection.
//
// Every fetch takes a ticket from [Snapshot.Begin] before calling the backend. A result is applied
// only while mounted and only if its ticket is newer than the last applied one, so when fetches
// overlap the one started last wins regardless of completion order. Tickets issued before the
// latest [Snapshot.Mount] are never applied.
type Snapshot[T any] struct {
	// renderMu orders Apply and the render callback.
	renderMu sync.Mutex

	mu       sync.Mutex
	value    T
	loaded   bool
	issued   uint64
	applied  uint64
	floor    uint64
	mounted  bool
	renders  int
	onRender func(T)
}

// Begin issues a fetch ticket.
func (s *Snapshot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply replaces the snapshot with v if ticket is still current. It reports whether v was applied.
func (s *Snapshot[T]) Apply(ticket uint64, v T) bool {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if !s.mounted || ticket <= s.floor || ticket <= s.applied {
		s.mu.Unlock()
		return false
	}
	s.value = v
	s.loaded = true
	s.applied = ticket
	s.renders++
	fn := s.onRender
	s.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return true
}

// Current reports whether a result for ticket may still be applied.
func (s *Snapshot[T]) Current(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted && ticket > s.floor && ticket > s.applied
}

// Get returns the snapshot and whether any fetch has been applied.
func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.loaded
}

// Mount starts accepting results. Tickets issued so far are invalidated.
func (s *Snapshot[T]) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	s.floor = s.issued
}

// Unmount stops accepting results. The last value is kept.
func (s *Snapshot[T]) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
}

// Mounted reports whether results are accepted.
func (s *Snapshot[T]) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Renders returns how many results have been applied.
func (s *Snapshot[T]) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// OnRender sets fn to run after every applied result, in ticket order.
func (s *Snapshot[T]) OnRender(fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRender = fn
}
