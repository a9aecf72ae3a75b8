package friends

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/models"
)

type pairKey struct {
	from string
	to   string
}

type friendship struct {
	entry     models.FriendEntry
	createdAt time.Time
}

// MemoryStore implements Store in memory. It backs the service and handler
// tests; the server always uses the Postgres store.
// Transactions run under a single lock against a copy of the state that is
// swapped in only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState
}

type memoryState struct {
	users    map[string]struct{}
	requests map[pairKey]models.FriendRequest
	friends  map[pairKey]friendship
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memoryState{
		users:    make(map[string]struct{}),
		requests: make(map[pairKey]models.FriendRequest),
		friends:  make(map[pairKey]friendship),
	}}
}

// AddUser registers userID so lifecycle operations can reference it.
func (s *MemoryStore) AddUser(userID string) {
	s.mu.Lock()
	s.state.users[userID] = struct{}{}
	s.mu.Unlock()
}

func (s *MemoryStore) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.users[userID]
	return ok, nil
}

func (s *MemoryStore) Sent(_ context.Context, userID string) ([]models.FriendEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.FriendEntry
	for _, req := range s.sortedRequests() {
		if req.SenderID == userID {
			out = append(out, models.FriendEntry{FriendID: req.ReceiverID, FriendName: req.ReceiverName})
		}
	}
	return out, nil
}

func (s *MemoryStore) Received(_ context.Context, userID string) ([]models.FriendEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.FriendEntry
	for _, req := range s.sortedRequests() {
		if req.ReceiverID == userID {
			out = append(out, models.FriendEntry{FriendID: req.SenderID, FriendName: req.SenderName})
		}
	}
	return out, nil
}

func (s *MemoryStore) Friends(_ context.Context, userID string) ([]models.FriendEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []friendship
	for key, f := range s.state.friends {
		if key.from == userID {
			rows = append(rows, f)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].createdAt.Equal(rows[j].createdAt) {
			return rows[i].entry.FriendID < rows[j].entry.FriendID
		}
		return rows[i].createdAt.Before(rows[j].createdAt)
	})

	out := make([]models.FriendEntry, 0, len(rows))
	for _, f := range rows {
		out = append(out, f.entry)
	}
	return out, nil
}

func (s *MemoryStore) AreFriends(_ context.Context, userID, otherID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.friends[pairKey{userID, otherID}]
	return ok, nil
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *MemoryStore) sortedRequests() []models.FriendRequest {
	out := make([]models.FriendRequest, 0, len(s.state.requests))
	for _, req := range s.state.requests {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].SenderID+out[i].ReceiverID < out[j].SenderID+out[j].ReceiverID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (st memoryState) clone() memoryState {
	out := memoryState{
		users:    make(map[string]struct{}, len(st.users)),
		requests: make(map[pairKey]models.FriendRequest, len(st.requests)),
		friends:  make(map[pairKey]friendship, len(st.friends)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.requests {
		out.requests[k] = v
	}
	for k, v := range st.friends {
		out.friends[k] = v
	}
	return out
}

type memoryTx struct {
	state memoryState
}

func (t *memoryTx) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := t.state.users[userID]
	return ok, nil
}

func (t *memoryTx) PendingRequest(_ context.Context, senderID, receiverID string) (models.FriendRequest, error) {
	req, ok := t.state.requests[pairKey{senderID, receiverID}]
	if !ok {
		return models.FriendRequest{}, db.ErrNotFound
	}
	return req, nil
}

func (t *memoryTx) AreFriends(_ context.Context, userID, otherID string) (bool, error) {
	_, ok := t.state.friends[pairKey{userID, otherID}]
	return ok, nil
}

func (t *memoryTx) InsertRequest(_ context.Context, request models.FriendRequest) error {
	key := pairKey{request.SenderID, request.ReceiverID}
	if _, ok := t.state.requests[key]; ok {
		return db.ErrConflict
	}
	t.state.requests[key] = request
	return nil
}

func (t *memoryTx) DeleteRequest(_ context.Context, senderID, receiverID string) error {
	key := pairKey{senderID, receiverID}
	if _, ok := t.state.requests[key]; !ok {
		return db.ErrNotFound
	}
	delete(t.state.requests, key)
	return nil
}

func (t *memoryTx) InsertFriendship(_ context.Context, userID string, friend models.FriendEntry, at time.Time) error {
	key := pairKey{userID, friend.FriendID}
	if _, ok := t.state.friends[key]; ok {
		return db.ErrConflict
	}
	t.state.friends[key] = friendship{entry: friend, createdAt: at}
	return nil
}

var _ Store = (*MemoryStore)(nil)
