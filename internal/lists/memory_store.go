package lists

import (
	"context"
	"sort"
	"sync"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/models"
)

// MemoryStore implements Store in memory for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	lists    map[string]models.List
	items    map[string]models.Item
	subItems map[string]models.SubItem
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists:    make(map[string]models.List),
		items:    make(map[string]models.Item),
		subItems: make(map[string]models.SubItem),
	}
}

func (s *MemoryStore) CreateList(_ context.Context, list models.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[list.ID]; ok {
		return db.ErrConflict
	}
	s.lists[list.ID] = list
	return nil
}

func (s *MemoryStore) GetList(_ context.Context, listID string) (models.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[listID]
	if !ok {
		return models.List{}, db.ErrNotFound
	}
	return list, nil
}

func (s *MemoryStore) UpdateList(_ context.Context, list models.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[list.ID]; !ok {
		return db.ErrNotFound
	}
	s.lists[list.ID] = list
	return nil
}

func (s *MemoryStore) DeleteList(_ context.Context, listID string) (models.ListSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[listID]
	if !ok {
		return models.ListSnapshot{}, db.ErrNotFound
	}

	snapshot := models.ListSnapshot{List: list, Items: s.itemsOf(listID), History: []models.History{}}
	for _, item := range snapshot.Items {
		s.deleteItemLocked(item.ID)
	}
	delete(s.lists, listID)
	return snapshot, nil
}

func (s *MemoryStore) ListsByCreator(_ context.Context, creatorID string) ([]models.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterLists(func(l models.List) bool { return l.CreatorID == creatorID }), nil
}

func (s *MemoryStore) PublicListsByCreators(_ context.Context, creatorIDs []string) ([]models.List, error) {
	wanted := make(map[string]struct{}, len(creatorIDs))
	for _, id := range creatorIDs {
		wanted[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterLists(func(l models.List) bool {
		_, ok := wanted[l.CreatorID]
		return ok && l.IsPublic()
	}), nil
}

func (s *MemoryStore) CreateItem(_ context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[item.ListID]; !ok {
		return db.ErrNotFound
	}
	item.SubItems = nil
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) GetItem(_ context.Context, itemID string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return models.Item{}, db.ErrNotFound
	}
	return s.withSubItems(item), nil
}

func (s *MemoryStore) UpdateItem(_ context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return db.ErrNotFound
	}
	item.SubItems = nil
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return db.ErrNotFound
	}
	s.deleteItemLocked(itemID)
	return nil
}

func (s *MemoryStore) ItemsByList(_ context.Context, listID string) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsOf(listID), nil
}

func (s *MemoryStore) CreateSubItem(_ context.Context, sub models.SubItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[sub.ItemID]; !ok {
		return db.ErrNotFound
	}
	s.subItems[sub.ID] = sub
	return nil
}

func (s *MemoryStore) UpdateSubItem(_ context.Context, sub models.SubItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.subItems[sub.ID]
	if !ok || existing.ItemID != sub.ItemID {
		return db.ErrNotFound
	}
	s.subItems[sub.ID] = sub
	return nil
}

func (s *MemoryStore) DeleteSubItem(_ context.Context, itemID, subItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.subItems[subItemID]
	if !ok || existing.ItemID != itemID {
		return db.ErrNotFound
	}
	delete(s.subItems, subItemID)
	return nil
}

func (s *MemoryStore) filterLists(keep func(models.List) bool) []models.List {
	out := []models.List{}
	for _, list := range s.lists {
		if keep(list) {
			out = append(out, list)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) itemsOf(listID string) []models.Item {
	out := []models.Item{}
	for _, item := range s.items {
		if item.ListID == listID {
			out = append(out, s.withSubItems(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) withSubItems(item models.Item) models.Item {
	item.SubItems = []models.SubItem{}
	for _, sub := range s.subItems {
		if sub.ItemID == item.ID {
			item.SubItems = append(item.SubItems, sub)
		}
	}
	sort.Slice(item.SubItems, func(i, j int) bool {
		return item.SubItems[i].CreatedAt.Before(item.SubItems[j].CreatedAt)
	})
	return item
}

func (s *MemoryStore) deleteItemLocked(itemID string) {
	for id, sub := range s.subItems {
		if sub.ItemID == itemID {
			delete(s.subItems, id)
		}
	}
	delete(s.items, itemID)
}
