package handlers

import (
	"sync"

	"microgrid-sizer/internal/api/models"
)

// SearchStore keeps finished searches in memory, evicting the oldest
// once limit is reached. Results do not survive a restart.
type SearchStore struct {
	mu    sync.RWMutex
	items map[string]*models.SearchResponse
	order []string
	limit int
}

func NewSearchStore(limit int) *SearchStore {
	if limit <= 0 {
		limit = 100
	}
	return &SearchStore{items: map[string]*models.SearchResponse{}, limit: limit}
}

func (s *SearchStore) Put(resp *models.SearchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.items[resp.ID] = resp
	for len(s.order) > s.limit {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *SearchStore) Get(id string) (*models.SearchResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.items[id]
	return resp, ok
}

func (s *SearchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
