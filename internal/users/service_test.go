package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/friends"
	"github.com/todoshare/backend/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]models.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return db.ErrConflict
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, db.ErrNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, db.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type fixture struct {
	svc      Service
	users    *memoryUsers
	sessions *auth.InMemorySessionStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := newMemoryUsers()
	sessions := auth.NewInMemorySessionStore()
	manager := auth.NewManager(auth.NewTokenSigner([]byte("test-secret")), time.Minute, time.Hour, sessions)
	return fixture{
		svc: Service{
			Users:     users,
			Relations: friends.NewMemoryStore(),
			Sessions:  manager,
		},
		users:    users,
		sessions: sessions,
	}
}

func validSignUp() SignUpInput {
	return SignUpInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		CountryName:  "UK",
		MobileNumber: "0123",
		Email:        " Ada@Example.com ",
		Password:     "correct-horse",
	}
}

func TestSignUpAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.Password)

	result, err := f.svc.Login(ctx, "ADA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.True(t, f.sessions.Has(result.RefreshToken))
	assert.Equal(t, user.ID, result.UserDetails.ID)
	assert.NotNil(t, result.UserDetails.Friends)
	assert.NotNil(t, result.UserDetails.FriendRequestSent)
	assert.NotNil(t, result.UserDetails.FriendRequestReceived)
}

func TestSignUpValidation(t *testing.T) {
	tests := map[string]func(*SignUpInput){
		"missing first name": func(in *SignUpInput) { in.FirstName = " " },
		"missing email":      func(in *SignUpInput) { in.Email = "" },
		"malformed email":    func(in *SignUpInput) { in.Email = "not-an-email" },
		"short password":     func(in *SignUpInput) { in.Password = "short" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			in := validSignUp()
			mutate(&in)
			_, err := f.svc.SignUp(context.Background(), in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, validSignUp())
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSignUpStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("connection reset")

	_, err := f.svc.SignUp(context.Background(), validSignUp())
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "failed to create account", apperr.MessageOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Login(ctx, "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	login, err := f.svc.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	tokens, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Refresh(ctx, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLogoutRevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	login, err := f.svc.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	err = f.svc.Logout(ctx, auth.Identity{UserID: "someone-else"}, user.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.True(t, f.sessions.Has(login.RefreshToken))

	require.NoError(t, f.svc.Logout(ctx, auth.Identity{UserID: user.ID}, user.ID))
	assert.False(t, f.sessions.Has(login.RefreshToken))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	caller := auth.Identity{UserID: user.ID}

	_, err = f.svc.Delete(ctx, auth.Identity{UserID: "intruder"}, user.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	deleted, err := f.svc.Delete(ctx, caller, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)

	_, err = f.svc.Delete(ctx, caller, user.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAllAndDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)

	second := validSignUp()
	second.Email = "grace@example.com"
	_, err = f.svc.SignUp(ctx, second)
	require.NoError(t, err)

	all, err := f.svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ada@example.com", all[0].Email)

	details, err := f.svc.Details(ctx, auth.Identity{UserID: user.ID}, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, details.ID)

	_, err = f.svc.Details(ctx, auth.Identity{}, user.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Details(ctx, auth.Identity{UserID: user.ID}, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
