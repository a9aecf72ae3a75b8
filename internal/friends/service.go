// Package friends implements the friend-request lifecycle:
//
//	NONE -> PENDING (send) -> FRIENDS (accept) | NONE (reject, cancel)
//
// A pair is either pending in one direction, friends, or unrelated. Every
// transition writes both users' sides inside a single store transaction.
package friends

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/logging"
	"github.com/todoshare/backend/internal/models"
)

// RequestInput identifies a friend request by its two parties. Names are
// required when sending and ignored otherwise; the names captured at send
// time are used when a request is accepted.
type RequestInput struct {
	SenderID     string
	SenderName   string
	ReceiverID   string
	ReceiverName string
}

func (in RequestInput) normalize() RequestInput {
	return RequestInput{
		SenderID:     strings.TrimSpace(in.SenderID),
		SenderName:   strings.TrimSpace(in.SenderName),
		ReceiverID:   strings.TrimSpace(in.ReceiverID),
		ReceiverName: strings.TrimSpace(in.ReceiverName),
	}
}

// Service exposes the friend lifecycle operations.
type Service struct {
	store   Store
	nowFunc func() time.Time
}

// NewService constructs a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc overrides the clock used for request and friendship timestamps.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// Sent returns userID's outgoing pending requests.
func (s *Service) Sent(ctx context.Context, caller auth.Identity, userID string) ([]models.FriendEntry, error) {
	return s.list(ctx, caller, userID, "friends.sent", s.store.Sent)
}

// Received returns userID's incoming pending requests.
func (s *Service) Received(ctx context.Context, caller auth.Identity, userID string) ([]models.FriendEntry, error) {
	return s.list(ctx, caller, userID, "friends.received", s.store.Received)
}

// Friends returns userID's accepted friends.
func (s *Service) Friends(ctx context.Context, caller auth.Identity, userID string) ([]models.FriendEntry, error) {
	return s.list(ctx, caller, userID, "friends.list", s.store.Friends)
}

func (s *Service) list(ctx context.Context, caller auth.Identity, userID, op string, load func(context.Context, string) ([]models.FriendEntry, error)) ([]models.FriendEntry, error) {
	ctx, span := logging.StartSpan(ctx, op)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !caller.Is(userID) {
		return nil, apperr.Forbidden("cannot view another user's friend requests")
	}

	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if !exists {
		return nil, apperr.NotFound("user not found")
	}

	entries, err := load(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load friend requests", err)
	}
	if entries == nil {
		entries = []models.FriendEntry{}
	}
	return entries, nil
}

// Send creates a pending request from the sender to the receiver. The caller
// must be the sender.
func (s *Service) Send(ctx context.Context, caller auth.Identity, in RequestInput) error {
	ctx, span := logging.StartSpan(ctx, "friends.send")
	defer span.End()

	in = in.normalize()
	if in.SenderID == "" || in.SenderName == "" || in.ReceiverID == "" || in.ReceiverName == "" {
		return apperr.Validation("senderId, senderName, receiverId and receiverName are required")
	}
	if in.SenderID == in.ReceiverID {
		return apperr.Validation("cannot send a friend request to yourself")
	}
	if !caller.Is(in.SenderID) {
		return apperr.Forbidden("only the sender can send a friend request")
	}

	now := s.nowFunc()
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if err := requireUsers(ctx, tx, in.SenderID, in.ReceiverID); err != nil {
			return err
		}

		friends, err := tx.AreFriends(ctx, in.SenderID, in.ReceiverID)
		if err != nil {
			return err
		}
		if friends {
			return apperr.Conflict("users are already friends")
		}

		for _, pair := range [][2]string{{in.SenderID, in.ReceiverID}, {in.ReceiverID, in.SenderID}} {
			_, err := tx.PendingRequest(ctx, pair[0], pair[1])
			if err == nil {
				return apperr.Conflict("a friend request between these users is already pending")
			}
			if !errors.Is(err, db.ErrNotFound) {
				return err
			}
		}

		return tx.InsertRequest(ctx, models.FriendRequest{
			SenderID:     in.SenderID,
			SenderName:   in.SenderName,
			ReceiverID:   in.ReceiverID,
			ReceiverName: in.ReceiverName,
			CreatedAt:    now,
		})
	})
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return apperr.Conflict("a friend request between these users is already pending")
		}
		return translate(err, "failed to send friend request")
	}

	logging.FromContext(ctx).Info("friend request sent", "senderId", in.SenderID, "receiverId", in.ReceiverID)
	return nil
}

// Accept resolves a pending request into a mutual friendship. The caller must
// be the receiver.
func (s *Service) Accept(ctx context.Context, caller auth.Identity, in RequestInput) error {
	ctx, span := logging.StartSpan(ctx, "friends.accept")
	defer span.End()

	in, err := s.checkResolve(caller, in, in.ReceiverID, "only the receiver can accept a friend request")
	if err != nil {
		return err
	}

	now := s.nowFunc()
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		request, err := takePending(ctx, tx, in)
		if err != nil {
			return err
		}

		if err := tx.InsertFriendship(ctx, request.SenderID, models.FriendEntry{FriendID: request.ReceiverID, FriendName: request.ReceiverName}, now); err != nil {
			return err
		}
		return tx.InsertFriendship(ctx, request.ReceiverID, models.FriendEntry{FriendID: request.SenderID, FriendName: request.SenderName}, now)
	})
	if err != nil {
		return translate(err, "failed to accept friend request")
	}

	logging.FromContext(ctx).Info("friend request accepted", "senderId", in.SenderID, "receiverId", in.ReceiverID)
	return nil
}

// Reject discards a pending request. The caller must be the receiver.
func (s *Service) Reject(ctx context.Context, caller auth.Identity, in RequestInput) error {
	ctx, span := logging.StartSpan(ctx, "friends.reject")
	defer span.End()

	in, err := s.checkResolve(caller, in, in.ReceiverID, "only the receiver can reject a friend request")
	if err != nil {
		return err
	}
	return s.discard(ctx, in, "rejected")
}

// Cancel withdraws a pending request. The caller must be the sender.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, in RequestInput) error {
	ctx, span := logging.StartSpan(ctx, "friends.cancel")
	defer span.End()

	in, err := s.checkResolve(caller, in, in.SenderID, "only the sender can cancel a friend request")
	if err != nil {
		return err
	}
	return s.discard(ctx, in, "cancelled")
}

func (s *Service) discard(ctx context.Context, in RequestInput, outcome string) error {
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		_, err := takePending(ctx, tx, in)
		return err
	})
	if err != nil {
		return translate(err, "failed to update friend request")
	}

	logging.FromContext(ctx).Info("friend request "+outcome, "senderId", in.SenderID, "receiverId", in.ReceiverID)
	return nil
}

func (s *Service) checkResolve(caller auth.Identity, in RequestInput, actor, forbidden string) (RequestInput, error) {
	in = in.normalize()
	actor = strings.TrimSpace(actor)
	if in.SenderID == "" || in.ReceiverID == "" {
		return in, apperr.Validation("senderId and receiverId are required")
	}
	if !caller.Is(actor) {
		return in, apperr.Forbidden(forbidden)
	}
	return in, nil
}

// takePending loads and removes the pending request for in.
func takePending(ctx context.Context, tx Tx, in RequestInput) (models.FriendRequest, error) {
	request, err := tx.PendingRequest(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.FriendRequest{}, apperr.NotFound("no pending friend request between these users")
		}
		return models.FriendRequest{}, err
	}

	if err := tx.DeleteRequest(ctx, in.SenderID, in.ReceiverID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.FriendRequest{}, apperr.NotFound("no pending friend request between these users")
		}
		return models.FriendRequest{}, err
	}
	return request, nil
}

func requireUsers(ctx context.Context, tx Tx, ids ...string) error {
	for _, id := range ids {
		exists, err := tx.UserExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("user " + id + " not found")
		}
	}
	return nil
}

func translate(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(msg, err)
}
