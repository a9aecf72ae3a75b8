package history

import (
	"context"
	"sort"
	"sync"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/models"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.History
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.History)}
}

func (s *MemoryStore) Add(_ context.Context, entry models.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; ok {
		return db.ErrConflict
	}
	s.entries[entry.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, historyID string) (models.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[historyID]
	if !ok {
		return models.History{}, db.ErrNotFound
	}
	return entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, historyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[historyID]; !ok {
		return db.ErrNotFound
	}
	delete(s.entries, historyID)
	return nil
}

func (s *MemoryStore) ByList(_ context.Context, listID string) ([]models.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.History{}
	for _, entry := range s.entries {
		if entry.ListID == listID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
