package memory

import (
	"context"
	"sync"
)

type HubStore struct {
	mu  sync.Mutex
	ids map[string]bool
}

func NewHubStore(hubIDs ...string) *HubStore {
	s := &HubStore{ids: map[string]bool{}}
	for _, id := range hubIDs {
		s.ids[id] = true
	}
	return s
}

func (s *HubStore) Add(hubID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[hubID] = true
}

func (s *HubStore) Exists(_ context.Context, hubID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[hubID], nil
}
