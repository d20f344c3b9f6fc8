package organization

import (
	"context"
	"sync"

	id "tributo/pkg/domain"
	"tributo/pkg/platform/sentinel"
)

// InMemoryStore holds organizations in process memory for tests and local
// development.
type InMemoryStore struct {
	mu   sync.RWMutex
	orgs map[id.OrgID]*Organization
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		orgs: make(map[id.OrgID]*Organization),
	}
}

func (s *InMemoryStore) GetOrganization(_ context.Context, orgID id.OrgID) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

// Put inserts or replaces an organization. Test helper; the core never
// writes tenant records in production.
func (s *InMemoryStore) Put(org *Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *org
	s.orgs[org.ID] = &copied
}
