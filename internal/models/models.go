package models

import (
	"encoding/json"
	"time"
)

// User represents an account within the todoshare platform.
type User struct {
	ID           string    `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CountryName  string    `json:"countryName"`
	MobileNumber string    `json:"mobileNumber"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"createdOn"`
	UpdatedAt    time.Time `json:"-"`
}

// FullName joins first and last name the way friend entries display them.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// FriendEntry is one element of a user's friends, sent or received set.
type FriendEntry struct {
	FriendID   string `json:"friendId"`
	FriendName string `json:"friendName"`
}

// FriendRequest is a pending request from Sender to Receiver. Names are
// snapshotted when the request is sent.
type FriendRequest struct {
	SenderID     string
	SenderName   string
	ReceiverID   string
	ReceiverName string
	CreatedAt    time.Time
}

// UserDetails is a user together with its relationship sets.
type UserDetails struct {
	User
	Friends               []FriendEntry `json:"friends"`
	FriendRequestSent     []FriendEntry `json:"friendRequestSent"`
	FriendRequestReceived []FriendEntry `json:"friendRequestReceived"`
}

const (
	ListModePublic  = "public"
	ListModePrivate = "private"
)

// List is a to-do list owned by its creator and optionally shared with friends.
type List struct {
	ID           string    `json:"listId"`
	Name         string    `json:"listName"`
	CreatorID    string    `json:"listCreatorId"`
	CreatorName  string    `json:"listCreatorName"`
	ModifierID   string    `json:"listModifierId"`
	ModifierName string    `json:"listModifierName"`
	Mode         string    `json:"listMode"`
	CreatedAt    time.Time `json:"listCreatedOn"`
	ModifiedAt   time.Time `json:"listModifiedOn"`
}

// IsPublic reports whether friends of the creator may see the list.
func (l List) IsPublic() bool {
	return l.Mode == ListModePublic
}

// Item is an entry on a list.
type Item struct {
	ID           string    `json:"itemId"`
	ListID       string    `json:"listId"`
	Name         string    `json:"itemName"`
	Done         bool      `json:"itemDone"`
	CreatorID    string    `json:"itemCreatorId"`
	CreatorName  string    `json:"itemCreatorName"`
	ModifierID   string    `json:"itemModifierId"`
	ModifierName string    `json:"itemModifierName"`
	CreatedAt    time.Time `json:"itemCreatedOn"`
	ModifiedAt   time.Time `json:"itemModifiedOn"`
	SubItems     []SubItem `json:"subItems"`
}

// SubItem is a nested entry on an item.
type SubItem struct {
	ID           string    `json:"subItemId"`
	ItemID       string    `json:"-"`
	Name         string    `json:"subItemName"`
	Done         bool      `json:"subItemDone"`
	CreatorID    string    `json:"subItemCreatorId"`
	CreatorName  string    `json:"subItemCreatorName"`
	ModifierID   string    `json:"subItemModifierId"`
	ModifierName string    `json:"subItemModifierName"`
	CreatedAt    time.Time `json:"subItemCreatedOn"`
	ModifiedAt   time.Time `json:"subItemModifiedOn"`
}

// History records a change made to a list so clients can offer undo.
type History struct {
	ID         string          `json:"historyId"`
	ListID     string          `json:"listId"`
	ItemID     string          `json:"itemId,omitempty"`
	SubItemID  string          `json:"subItemId,omitempty"`
	Key        string          `json:"key"`
	ItemValues json.RawMessage `json:"itemValues,omitempty"`
	CreatedAt  time.Time       `json:"createdOn"`
}

// ListSnapshot is the archived form of a deleted list.
type ListSnapshot struct {
	List      List      `json:"list"`
	Items     []Item    `json:"items"`
	History   []History `json:"history"`
	DeletedBy string    `json:"deletedBy"`
	DeletedAt time.Time `json:"deletedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"authToken"`
	AccessExpiresAt  time.Time `json:"authTokenExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}
