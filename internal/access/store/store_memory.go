// Package store provides document-count backends for the access enforcer.
package store

import (
	"context"
	"sync"
	"time"

	id "tributo/pkg/domain"
)

// InMemoryCounter counts document creation timestamps held in memory.
// Tests seed it directly; production uses the postgres counter.
type InMemoryCounter struct {
	mu      sync.RWMutex
	created map[id.OrgID][]time.Time

	failWith error
}

func NewMemory() *InMemoryCounter {
	return &InMemoryCounter{
		created: make(map[id.OrgID][]time.Time),
	}
}

func (c *InMemoryCounter) CountCreatedSince(_ context.Context, orgID id.OrgID, since time.Time) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.failWith != nil {
		return 0, c.failWith
	}

	count := 0
	for _, ts := range c.created[orgID] {
		if !ts.Before(since) {
			count++
		}
	}
	return count, nil
}

// Record seeds one document creation at the given instant.
func (c *InMemoryCounter) Record(orgID id.OrgID, createdAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created[orgID] = append(c.created[orgID], createdAt)
}

// FailWith makes subsequent calls return err; pass nil to heal.
func (c *InMemoryCounter) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWith = err
}
