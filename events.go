package souqfeed

import (
	"sort"
	"sync"
)

// stream is a minimal fan-out event source. Every listener sees every
// emitted event, in emit order, in subscription order. There is no
// buffering: callbacks run on the emitting goroutine and must not block or
// re-enter the stream.
type stream[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(T)
}

// subscribe registers fn and returns a cancel func that releases it.
func (s *stream[T]) subscribe(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]func(T))
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// emit delivers event to every current listener.
func (s *stream[T]) emit(event T) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}
