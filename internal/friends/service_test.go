package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/models"
)

var (
	alice = auth.Identity{UserID: "alice"}
	bob   = auth.Identity{UserID: "bob"}
	carol = auth.Identity{UserID: "carol"}
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	for _, id := range []string{"alice", "bob", "carol"} {
		store.AddUser(id)
	}
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(store).WithNowFunc(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	return svc, store
}

func aliceToBob() RequestInput {
	return RequestInput{SenderID: "alice", SenderName: "Alice A", ReceiverID: "bob", ReceiverName: "Bob B"}
}

type snapshot struct {
	sent, received, friends map[string][]models.FriendEntry
}

func takeSnapshot(t *testing.T, store *MemoryStore) snapshot {
	t.Helper()
	ctx := context.Background()
	snap := snapshot{
		sent:     map[string][]models.FriendEntry{},
		received: map[string][]models.FriendEntry{},
		friends:  map[string][]models.FriendEntry{},
	}
	for _, id := range []string{"alice", "bob", "carol"} {
		var err error
		snap.sent[id], err = store.Sent(ctx, id)
		require.NoError(t, err)
		snap.received[id], err = store.Received(ctx, id)
		require.NoError(t, err)
		snap.friends[id], err = store.Friends(ctx, id)
		require.NoError(t, err)
	}
	return snap
}

func TestSendCreatesPendingPair(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, alice, aliceToBob()))

	sent, err := svc.Sent(ctx, alice, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.FriendEntry{{FriendID: "bob", FriendName: "Bob B"}}, sent)

	received, err := svc.Received(ctx, bob, "bob")
	require.NoError(t, err)
	assert.Equal(t, []models.FriendEntry{{FriendID: "alice", FriendName: "Alice A"}}, received)

	aliceFriends, err := svc.Friends(ctx, alice, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceFriends)

	bobFriends, err := svc.Friends(ctx, bob, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobFriends)
}

func TestAcceptScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, alice, aliceToBob()))

	received, err := svc.Received(ctx, bob, "bob")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "alice", received[0].FriendID)

	require.NoError(t, svc.Accept(ctx, bob, RequestInput{SenderID: "alice", ReceiverID: "bob"}))

	aliceFriends, err := svc.Friends(ctx, alice, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.FriendEntry{{FriendID: "bob", FriendName: "Bob B"}}, aliceFriends)

	bobFriends, err := svc.Friends(ctx, bob, "bob")
	require.NoError(t, err)
	assert.Equal(t, []models.FriendEntry{{FriendID: "alice", FriendName: "Alice A"}}, bobFriends)

	sent, err := svc.Sent(ctx, alice, "alice")
	require.NoError(t, err)
	assert.Empty(t, sent)

	received, err = svc.Received(ctx, bob, "bob")
	require.NoError(t, err)
	assert.Empty(t, received)
}

func TestRejectAndCancelRemovePendingOnly(t *testing.T) {
	cases := []struct {
		name   string
		caller auth.Identity
		run    func(*Service, context.Context, auth.Identity, RequestInput) error
	}{
		{"reject", bob, (*Service).Reject},
		{"cancel", alice, (*Service).Cancel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t)
			ctx := context.Background()

			require.NoError(t, svc.Send(ctx, alice, aliceToBob()))
			require.NoError(t, tc.run(svc, ctx, tc.caller, RequestInput{SenderID: "alice", ReceiverID: "bob"}))

			snap := takeSnapshot(t, store)
			assert.Empty(t, snap.sent["alice"])
			assert.Empty(t, snap.received["bob"])
			assert.Empty(t, snap.friends["alice"])
			assert.Empty(t, snap.friends["bob"])
		})
	}
}

func TestResolveWithoutPendingIsNotFound(t *testing.T) {
	cases := []struct {
		name   string
		caller auth.Identity
		run    func(*Service, context.Context, auth.Identity, RequestInput) error
	}{
		{"accept", bob, (*Service).Accept},
		{"reject", bob, (*Service).Reject},
		{"cancel", alice, (*Service).Cancel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t)
			ctx := context.Background()

			// Unrelated state that must survive the failed call.
			require.NoError(t, svc.Send(ctx, carol, RequestInput{SenderID: "carol", SenderName: "Carol", ReceiverID: "alice", ReceiverName: "Alice A"}))
			before := takeSnapshot(t, store)

			err := tc.run(svc, ctx, tc.caller, RequestInput{SenderID: "alice", ReceiverID: "bob"})
			require.Error(t, err)
			assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
			assert.Equal(t, before, takeSnapshot(t, store))
		})
	}
}

func TestSendConflicts(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()
		require.NoError(t, svc.Send(ctx, alice, aliceToBob()))
		before := takeSnapshot(t, store)

		err := svc.Send(ctx, alice, aliceToBob())
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, before, takeSnapshot(t, store))
	})

	t.Run("reverseDirection", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()
		require.NoError(t, svc.Send(ctx, alice, aliceToBob()))
		before := takeSnapshot(t, store)

		err := svc.Send(ctx, bob, RequestInput{SenderID: "bob", SenderName: "Bob B", ReceiverID: "alice", ReceiverName: "Alice A"})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, before, takeSnapshot(t, store))
	})

	t.Run("alreadyFriends", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()
		require.NoError(t, svc.Send(ctx, alice, aliceToBob()))
		require.NoError(t, svc.Accept(ctx, bob, RequestInput{SenderID: "alice", ReceiverID: "bob"}))
		before := takeSnapshot(t, store)

		for _, caller := range []auth.Identity{alice, bob} {
			in := aliceToBob()
			if caller == bob {
				in = RequestInput{SenderID: "bob", SenderName: "Bob B", ReceiverID: "alice", ReceiverName: "Alice A"}
			}
			err := svc.Send(ctx, caller, in)
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		}
		assert.Equal(t, before, takeSnapshot(t, store))
	})
}

func TestSendValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		caller   auth.Identity
		in       RequestInput
		wantKind apperr.Kind
	}{
		{"missingFields", alice, RequestInput{SenderID: "alice"}, apperr.KindValidation},
		{"blankName", alice, RequestInput{SenderID: "alice", SenderName: "  ", ReceiverID: "bob", ReceiverName: "Bob"}, apperr.KindValidation},
		{"self", alice, RequestInput{SenderID: "alice", SenderName: "A", ReceiverID: "alice", ReceiverName: "A"}, apperr.KindValidation},
		{"notSender", bob, aliceToBob(), apperr.KindForbidden},
		{"unknownReceiver", alice, RequestInput{SenderID: "alice", SenderName: "A", ReceiverID: "dave", ReceiverName: "D"}, apperr.KindNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Send(ctx, tc.caller, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, apperr.KindOf(err))
		})
	}
}

func TestResolveRequiresRightParty(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Send(ctx, alice, aliceToBob()))
	before := takeSnapshot(t, store)

	in := RequestInput{SenderID: "alice", ReceiverID: "bob"}
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Accept(ctx, alice, in)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Reject(ctx, carol, in)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Cancel(ctx, bob, in)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(svc.Accept(ctx, bob, RequestInput{ReceiverID: "bob"})))
	assert.Equal(t, before, takeSnapshot(t, store))
}

func TestListOperations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Sent(ctx, alice, "bob")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Received(ctx, auth.Identity{UserID: "ghost"}, "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Friends(ctx, alice, " ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	sent, err := svc.Sent(ctx, alice, "alice")
	require.NoError(t, err)
	assert.NotNil(t, sent)
	assert.Empty(t, sent)
}

type failingStore struct {
	*MemoryStore
	err error
}

func (s failingStore) WithinTx(context.Context, func(Tx) error) error { return s.err }

func TestStoreFailuresAreInternal(t *testing.T) {
	store := NewMemoryStore()
	store.AddUser("alice")
	store.AddUser("bob")
	svc := NewService(failingStore{MemoryStore: store, err: errors.New("connection reset")})

	err := svc.Send(context.Background(), alice, aliceToBob())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "failed to send friend request", apperr.MessageOf(err))
}
