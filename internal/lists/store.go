package lists

import (
	"context"

	"github.com/todoshare/backend/internal/models"
)

// Store persists lists, items and sub-items. Lookups return db.ErrNotFound
// for unknown ids.
type Store interface {
	CreateList(ctx context.Context, list models.List) error
	GetList(ctx context.Context, listID string) (models.List, error)
	UpdateList(ctx context.Context, list models.List) error
	// DeleteList removes the list with its items and history and returns
	// what was removed.
	DeleteList(ctx context.Context, listID string) (models.ListSnapshot, error)
	ListsByCreator(ctx context.Context, creatorID string) ([]models.List, error)
	PublicListsByCreators(ctx context.Context, creatorIDs []string) ([]models.List, error)

	CreateItem(ctx context.Context, item models.Item) error
	// GetItem returns the item with its sub-items in creation order.
	GetItem(ctx context.Context, itemID string) (models.Item, error)
	UpdateItem(ctx context.Context, item models.Item) error
	DeleteItem(ctx context.Context, itemID string) error
	ItemsByList(ctx context.Context, listID string) ([]models.Item, error)

	CreateSubItem(ctx context.Context, sub models.SubItem) error
	UpdateSubItem(ctx context.Context, sub models.SubItem) error
	DeleteSubItem(ctx context.Context, itemID, subItemID string) error
}

// Friendships answers whether two users are friends.
type Friendships interface {
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

// Archiver receives snapshots of deleted lists. Enqueue must not wait for
// upload capacity; a rejected snapshot is logged and the delete still succeeds.
type Archiver interface {
	Enqueue(ctx context.Context, snapshot models.ListSnapshot) error
}
