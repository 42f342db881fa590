// Package supersede implements latest-wins acceptance of asynchronous results.
//
// Every asynchronous operation is tagged with a generation from Issue. When
// its result arrives, Apply accepts it only if no newer generation has been
// issued since; otherwise the result is discarded without touching state.
package supersede

import "sync"

// Slot guards a value of type T behind a monotonically increasing generation.
// The zero value is ready to use.
type Slot[T any] struct {
	mu     sync.Mutex
	latest uint64
	value  T
}

// Issue starts a new generation, applies fn to the value under the lock and
// returns the generation. Any earlier generation becomes stale.
func (s *Slot[T]) Issue(fn func(*T)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	if fn != nil {
		fn(&s.value)
	}
	return s.latest
}

// Apply runs fn only when gen is still the latest generation and reports
// whether it ran.
func (s *Slot[T]) Apply(gen uint64, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.latest {
		return false
	}
	fn(&s.value)
	return true
}

// Update mutates the value regardless of generation.
func (s *Slot[T]) Update(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
}

// Load returns a copy of the value.
func (s *Slot[T]) Load() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Slot[T]) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
