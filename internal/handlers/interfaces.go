package handlers

import (
	"context"

	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/friends"
	"github.com/todoshare/backend/internal/history"
	"github.com/todoshare/backend/internal/lists"
	"github.com/todoshare/backend/internal/models"
	"github.com/todoshare/backend/internal/users"
)

// UserService captures the account operations used by the user handlers.
type UserService interface {
	SignUp(ctx context.Context, in users.SignUpInput) (models.User, error)
	Login(ctx context.Context, email, password string) (users.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, caller auth.Identity, userID string) error
	Delete(ctx context.Context, caller auth.Identity, userID string) (models.User, error)
	All(ctx context.Context) ([]models.UserDetails, error)
	Details(ctx context.Context, caller auth.Identity, userID string) (models.UserDetails, error)
}

// FriendService captures the friend-request lifecycle.
type FriendService interface {
	Sent(ctx context.Context, caller auth.Identity, userID string) ([]models.FriendEntry, error)
	Received(ctx context.Context, caller auth.Identity, userID string) ([]models.FriendEntry, error)
	Friends(ctx context.Context, caller auth.Identity, userID string) ([]models.FriendEntry, error)
	Send(ctx context.Context, caller auth.Identity, in friends.RequestInput) error
	Accept(ctx context.Context, caller auth.Identity, in friends.RequestInput) error
	Reject(ctx context.Context, caller auth.Identity, in friends.RequestInput) error
	Cancel(ctx context.Context, caller auth.Identity, in friends.RequestInput) error
}

// ListService captures list, item and sub-item operations.
type ListService interface {
	AddList(ctx context.Context, caller auth.Identity, in lists.ListInput) (models.List, error)
	EditList(ctx context.Context, caller auth.Identity, listID string, in lists.ListUpdate) (models.List, error)
	DeleteList(ctx context.Context, caller auth.Identity, listID string) error
	ListsOf(ctx context.Context, caller auth.Identity, userID string) ([]models.List, error)
	PublicLists(ctx context.Context, caller auth.Identity, userIDs []string) ([]models.List, error)

	AddItem(ctx context.Context, caller auth.Identity, in lists.ItemInput) (models.Item, error)
	EditItem(ctx context.Context, caller auth.Identity, itemID string, in lists.ItemUpdate) (models.Item, error)
	DeleteItem(ctx context.Context, caller auth.Identity, itemID string) error
	Items(ctx context.Context, caller auth.Identity, listID string) ([]models.Item, error)
	Item(ctx context.Context, caller auth.Identity, itemID string) (models.Item, error)
	AddSubItem(ctx context.Context, caller auth.Identity, itemID string, in lists.ItemInput) (models.Item, error)
	EditSubItem(ctx context.Context, caller auth.Identity, itemID string, in lists.ItemUpdate) (models.Item, error)
	DeleteSubItem(ctx context.Context, caller auth.Identity, itemID, subItemID string) (models.Item, error)
}

// HistoryService captures history operations.
type HistoryService interface {
	Add(ctx context.Context, caller auth.Identity, in history.AddInput) (models.History, error)
	List(ctx context.Context, caller auth.Identity, listID string) ([]models.History, error)
	Delete(ctx context.Context, caller auth.Identity, historyID string) error
}
