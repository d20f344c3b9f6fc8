package store

import (
	"context"
	"sync"

	"tributo/internal/sequence"
)

// InMemoryStore keeps counter series in process memory. Unit tests and
// single-process development only: memory counters do not survive restarts,
// which breaks the gap-free guarantee in real deployments.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[sequence.CounterKey]int64

	// failWith, when set, makes every call fail. Lets service tests
	// exercise the store-unreachable path.
	failWith error
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		counters: make(map[sequence.CounterKey]int64),
	}
}

// NextValue increments the counter under a single lock, mirroring the
// atomicity of the postgres upsert.
func (s *InMemoryStore) NextValue(_ context.Context, key sequence.CounterKey) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return 0, s.failWith
	}

	s.counters[key]++
	return s.counters[key], nil
}

// FailWith makes subsequent calls return err; pass nil to heal.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}
