package handlers

import (
	"context"
	"net/http"

	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/friends"
	"github.com/todoshare/backend/internal/models"
)

// FriendHandler provides the friend-request endpoints.
type FriendHandler struct {
	Friends FriendService
}

// friendRequestBody also accepts the legacy recieverId/recieverName spelling.
type friendRequestBody struct {
	SenderID           string `json:"senderId"`
	SenderName         string `json:"senderName"`
	ReceiverID         string `json:"receiverId"`
	ReceiverName       string `json:"receiverName"`
	LegacyReceiverID   string `json:"recieverId"`
	LegacyReceiverName string `json:"recieverName"`
}

func (b friendRequestBody) input() friends.RequestInput {
	in := friends.RequestInput{
		SenderID:     b.SenderID,
		SenderName:   b.SenderName,
		ReceiverID:   b.ReceiverID,
		ReceiverName: b.ReceiverName,
	}
	if in.ReceiverID == "" {
		in.ReceiverID = b.LegacyReceiverID
	}
	if in.ReceiverName == "" {
		in.ReceiverName = b.LegacyReceiverName
	}
	return in
}

// Sent handles GET /friends/view/friend/request/sent/{userId}.
func (h FriendHandler) Sent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Friends.Sent, "Sent friend requests found")
}

// Received handles GET /friends/view/friend/request/received/{userId}.
func (h FriendHandler) Received(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Friends.Received, "Received friend requests found")
}

// ListFriends handles GET /friends/view/friends/{userId}.
func (h FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Friends.Friends, "Friends found")
}

// Send handles POST /friends/send/friend/request.
func (h FriendHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Friends.Send, "Friend request sent")
}

// Accept handles POST /friends/accept/friend/request.
func (h FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Friends.Accept, "Friend request accepted")
}

// Reject handles POST /friends/reject/friend/request.
func (h FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Friends.Reject, "Friend request rejected")
}

// Cancel handles POST /friends/cancel/friend/request.
func (h FriendHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Friends.Cancel, "Friend request cancelled")
}

func (h FriendHandler) list(w http.ResponseWriter, r *http.Request, load func(context.Context, auth.Identity, string) ([]models.FriendEntry, error), message string) {
	ctx := r.Context()
	entries, err := load(ctx, callerFrom(r), pathParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, message, entries)
}

func (h FriendHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, auth.Identity, friends.RequestInput) error, message string) {
	ctx := r.Context()

	var body friendRequestBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := apply(ctx, callerFrom(r), body.input()); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, message, nil)
}
