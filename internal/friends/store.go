package friends

import (
	"context"
	"time"

	"github.com/todoshare/backend/internal/models"
)

// Store is the friend relationship store.
type Store interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	Sent(ctx context.Context, userID string) ([]models.FriendEntry, error)
	Received(ctx context.Context, userID string) ([]models.FriendEntry, error)
	Friends(ctx context.Context, userID string) ([]models.FriendEntry, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)

	// WithinTx runs fn with a transactional view of the store. All writes made
	// through tx are committed together or not at all. fn may be invoked more
	// than once when the store retries a conflicting transaction.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes a lifecycle transition needs.
type Tx interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	// PendingRequest returns db.ErrNotFound when senderID has no pending
	// request to receiverID.
	PendingRequest(ctx context.Context, senderID, receiverID string) (models.FriendRequest, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	InsertRequest(ctx context.Context, request models.FriendRequest) error
	DeleteRequest(ctx context.Context, senderID, receiverID string) error
	// InsertFriendship adds friend to userID's friends set. Callers insert both
	// directions.
	InsertFriendship(ctx context.Context, userID string, friend models.FriendEntry, at time.Time) error
}
