package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/friends"
	"github.com/todoshare/backend/internal/history"
	"github.com/todoshare/backend/internal/lists"
	"github.com/todoshare/backend/internal/middleware"
	"github.com/todoshare/backend/internal/models"
	"github.com/todoshare/backend/internal/users"
)

const testPrefix = "/api/v1"

// memoryUserStore registers every created account with the friend store so
// friend requests between signed-up users resolve.
type memoryUserStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	friends *friends.MemoryStore
}

func (s *memoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return db.ErrConflict
		}
	}
	s.users[user.ID] = user
	s.friends.AddUser(user.ID)
	return nil
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, db.ErrNotFound
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, db.ErrNotFound
	}
	return user, nil
}

func (s *memoryUserStore) List(context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	handler http.Handler
	users   *memoryUserStore
	friends *friends.MemoryStore
	tokens  *auth.Manager
}

type testResponse struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T, limiter middleware.RateLimiter) *testEnv {
	t.Helper()

	friendStore := friends.NewMemoryStore()
	userStore := &memoryUserStore{users: map[string]models.User{}, friends: friendStore}
	manager := auth.NewManager(auth.NewTokenSigner([]byte("handler-test-secret")), time.Minute, time.Hour, auth.NewInMemorySessionStore())

	listService := lists.NewService(lists.NewMemoryStore(), friendStore, nil)

	router := mux.NewRouter()
	RegisterRoutes(router, Dependencies{
		APIPrefix: testPrefix,
		Users:     users.Service{Users: userStore, Relations: friendStore, Sessions: manager},
		Friends:   friends.NewService(friendStore),
		Lists:     listService,
		History:   history.NewService(history.NewMemoryStore(), listService),
		Tokens:    manager,
		Limiter:   limiter,
	})

	return &testEnv{handler: router, users: userStore, friends: friendStore, tokens: manager}
}

// addUser stores an account directly and returns an access token for it.
func (e *testEnv) addUser(t *testing.T, id, first, last string) string {
	t.Helper()
	err := e.users.Create(context.Background(), models.User{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first) + "@example.com",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}

	tokens, err := e.tokens.Issue(context.Background(), id)
	if err != nil {
		t.Fatalf("issue tokens for %s: %v", id, err)
	}
	return tokens.AccessToken
}

func (e *testEnv) call(t *testing.T, method, path, token string, body any) (int, testResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, testPrefix+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response for %s %s: %v (%s)", method, path, err, rec.Body.String())
	}
	if resp.Status != rec.Code {
		t.Fatalf("envelope status %d does not match http status %d", resp.Status, rec.Code)
	}
	return rec.Code, resp
}

func decodeData[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, resp.Data)
	}
	return out
}

func TestRoutesRequireAuthentication(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "alice", "Alice", "Smith")

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/friends/view/friend/request/sent/alice"},
		{http.MethodGet, "/friends/view/friends/alice"},
		{http.MethodPost, "/friends/send/friend/request"},
		{http.MethodPost, "/lists/addList"},
		{http.MethodGet, "/items/view/all/list-1"},
		{http.MethodPost, "/history/getHistory"},
		{http.MethodGet, "/users/alice/details"},
	}
	for _, tc := range cases {
		code, resp := env.call(t, tc.method, tc.path, "", map[string]string{})
		if code != http.StatusUnauthorized || !resp.Error {
			t.Fatalf("%s %s: expected 401 envelope, got %d %+v", tc.method, tc.path, code, resp)
		}
	}

	code, resp := env.call(t, http.MethodGet, "/friends/view/friends/alice", "not-a-token", nil)
	if code != http.StatusUnauthorized || resp.Message == "" {
		t.Fatalf("expected 401 for garbage token, got %d %+v", code, resp)
	}
}

func TestRoutesAcceptTokenFromBodyAndQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.addUser(t, "alice", "Alice", "Smith")
	env.addUser(t, "bob", "Bob", "Jones")

	code, resp := env.call(t, http.MethodPost, "/friends/send/friend/request", "", map[string]string{
		"authToken":    alice,
		"senderId":     "alice",
		"senderName":   "Alice Smith",
		"receiverId":   "bob",
		"receiverName": "Bob Jones",
	})
	if code != http.StatusOK {
		t.Fatalf("expected body token to authenticate, got %d %+v", code, resp)
	}

	code, resp = env.call(t, http.MethodGet, "/friends/view/friend/request/sent/alice?authToken="+alice, "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected query token to authenticate, got %d %+v", code, resp)
	}
	sent := decodeData[[]models.FriendEntry](t, resp)
	if len(sent) != 1 || sent[0].FriendID != "bob" {
		t.Fatalf("unexpected sent requests: %+v", sent)
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, testPrefix+"/nope", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRegisterRoutesAllPatterns(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.addUser(t, "alice", "Alice", "Smith")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/users/signup"},
		{http.MethodPost, "/users/login"},
		{http.MethodPost, "/users/refresh"},
		{http.MethodGet, "/users/view/all"},
		{http.MethodPost, "/users/logout/nobody"},
		{http.MethodPost, "/users/nobody/delete"},
		{http.MethodGet, "/users/nobody/details"},
		{http.MethodGet, "/friends/view/friend/request/sent/alice"},
		{http.MethodGet, "/friends/view/friend/request/received/alice"},
		{http.MethodGet, "/friends/view/friend/request/recieved/alice"},
		{http.MethodGet, "/friends/view/friends/alice"},
		{http.MethodPost, "/friends/send/friend/request"},
		{http.MethodPost, "/friends/accept/friend/request"},
		{http.MethodPost, "/friends/reject/friend/request"},
		{http.MethodPost, "/friends/cancel/friend/request"},
		{http.MethodPost, "/lists/addList"},
		{http.MethodPut, "/lists/missing/updateList"},
		{http.MethodPost, "/lists/delete/missing"},
		{http.MethodGet, "/lists/view/all/alice"},
		{http.MethodPost, "/lists/view/all/public/lists"},
		{http.MethodPost, "/items/additem"},
		{http.MethodPut, "/items/edititem/missing"},
		{http.MethodPost, "/items/delete/missing"},
		{http.MethodGet, "/items/view/all/missing"},
		{http.MethodGet, "/items/missing/details"},
		{http.MethodPut, "/items/addSubItem/missing"},
		{http.MethodPut, "/items/missing/updateSubItem"},
		{http.MethodPut, "/items/deleteSubItem/missing"},
		{http.MethodPost, "/history/addHistory"},
		{http.MethodPost, "/history/deleteHistory"},
		{http.MethodPost, "/history/getHistory"},
	}
	for _, route := range routes {
		code, resp := env.call(t, route.method, route.path, alice, map[string]string{})
		if code == http.StatusMethodNotAllowed || resp.Message == "route not found" {
			t.Fatalf("%s %s is not routed: %d %+v", route.method, route.path, code, resp)
		}
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200 got %d", rec.Code)
	}

	code, resp := env.call(t, http.MethodDelete, "/lists/addList", alice, nil)
	if code != http.StatusMethodNotAllowed || !resp.Error {
		t.Fatalf("expected 405 envelope, got %d %+v", code, resp)
	}
}

func TestRoutesWithSharedShapesDispatchToTheirHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.addUser(t, "alice", "Alice", "Smith")
	bob := env.addUser(t, "bob", "Bob", "Jones")

	list := addList(t, env, alice, "Chores", "private")
	code, resp := env.call(t, http.MethodPost, "/items/additem", alice, map[string]string{
		"listId":          list.ID,
		"itemName":        "Laundry",
		"itemCreatorId":   "alice",
		"itemCreatorName": "Alice Smith",
	})
	if code != http.StatusOK {
		t.Fatalf("add item: %d %+v", code, resp)
	}
	item := decodeData[models.Item](t, resp)

	expect := func(method, path, token string, body any, message string) testResponse {
		t.Helper()
		code, resp := env.call(t, method, path, token, body)
		if code != http.StatusOK || resp.Message != message {
			t.Fatalf("%s %s: expected %q, got %d %+v", method, path, message, code, resp)
		}
		return resp
	}

	expect(http.MethodPut, "/items/edititem/"+item.ID, alice, map[string]any{
		"itemDone":         true,
		"itemModifierId":   "alice",
		"itemModifierName": "Alice Smith",
	}, "Item details updated")
	resp = expect(http.MethodPut, "/items/addSubItem/"+item.ID, alice, map[string]string{
		"subItemName":        "Whites",
		"subItemCreatorId":   "alice",
		"subItemCreatorName": "Alice Smith",
	}, "Sub item added successfully")
	subID := decodeData[models.Item](t, resp).SubItems[0].ID
	expect(http.MethodPut, "/items/"+item.ID+"/updateSubItem", alice, map[string]any{
		"subItemId":           subID,
		"subItemDone":         true,
		"subItemModifierId":   "alice",
		"subItemModifierName": "Alice Smith",
	}, "Sub item updated successfully")
	expect(http.MethodPut, "/items/deleteSubItem/"+item.ID, alice, map[string]string{"subItemId": subID}, "Sub item deleted successfully")

	expect(http.MethodPost, "/users/logout/alice", alice, nil, "Logged out successfully")
	expect(http.MethodPost, "/users/bob/delete", bob, nil, "Deleted the user successfully")
}
