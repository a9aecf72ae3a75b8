package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/friends"
	"github.com/todoshare/backend/internal/models"
)

// PostgresFriendStore implements friends.Store. Pending requests live in
// friend_requests and accepted friendships in friendships, one row per
// direction.
type PostgresFriendStore struct {
	pool db.Pool
}

var _ friends.Store = (*PostgresFriendStore)(nil)

// NewPostgresFriendStore constructs a friend store backed by PostgreSQL.
func NewPostgresFriendStore(pool db.Pool) *PostgresFriendStore {
	return &PostgresFriendStore{pool: pool}
}

func (s *PostgresFriendStore) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := withConn(ctx, s.pool, func(q querier) error {
		var err error
		exists, err = userExists(ctx, q, userID)
		return err
	})
	return exists, err
}

func (s *PostgresFriendStore) Sent(ctx context.Context, userID string) ([]models.FriendEntry, error) {
	return s.entries(ctx, `
        SELECT receiver_id, receiver_name FROM friend_requests
        WHERE sender_id = $1 ORDER BY created_at, receiver_id
    `, userID)
}

func (s *PostgresFriendStore) Received(ctx context.Context, userID string) ([]models.FriendEntry, error) {
	return s.entries(ctx, `
        SELECT sender_id, sender_name FROM friend_requests
        WHERE receiver_id = $1 ORDER BY created_at, sender_id
    `, userID)
}

func (s *PostgresFriendStore) Friends(ctx context.Context, userID string) ([]models.FriendEntry, error) {
	return s.entries(ctx, `
        SELECT friend_id, friend_name FROM friendships
        WHERE user_id = $1 ORDER BY created_at, friend_id
    `, userID)
}

func (s *PostgresFriendStore) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var ok bool
	err := withConn(ctx, s.pool, func(q querier) error {
		var err error
		ok, err = areFriends(ctx, q, userID, otherID)
		return err
	})
	return ok, err
}

// WithinTx runs fn in a serializable transaction, retried on conflicts.
func (s *PostgresFriendStore) WithinTx(ctx context.Context, fn func(tx friends.Tx) error) error {
	return db.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(pgFriendTx{tx: tx})
	})
}

func (s *PostgresFriendStore) entries(ctx context.Context, query, userID string) ([]models.FriendEntry, error) {
	out := []models.FriendEntry{}
	err := withConn(ctx, s.pool, func(q querier) error {
		rows, err := q.Query(ctx, query, userID)
		if err != nil {
			return fmt.Errorf("list friend entries: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var entry models.FriendEntry
			if err := rows.Scan(&entry.FriendID, &entry.FriendName); err != nil {
				return fmt.Errorf("scan friend entry: %w", err)
			}
			out = append(out, entry)
		}
		return rows.Err()
	})
	return out, err
}

type pgFriendTx struct {
	tx pgx.Tx
}

func (t pgFriendTx) UserExists(ctx context.Context, userID string) (bool, error) {
	return userExists(ctx, t.tx, userID)
}

func (t pgFriendTx) PendingRequest(ctx context.Context, senderID, receiverID string) (models.FriendRequest, error) {
	row := t.tx.QueryRow(ctx, `
        SELECT sender_id, sender_name, receiver_id, receiver_name, created_at
        FROM friend_requests
        WHERE sender_id = $1 AND receiver_id = $2
    `, senderID, receiverID)

	var request models.FriendRequest
	if err := row.Scan(&request.SenderID, &request.SenderName, &request.ReceiverID, &request.ReceiverName, &request.CreatedAt); err != nil {
		return models.FriendRequest{}, mapReadError(err, "select friend request")
	}
	request.CreatedAt = request.CreatedAt.UTC()
	return request, nil
}

func (t pgFriendTx) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	return areFriends(ctx, t.tx, userID, otherID)
}

func (t pgFriendTx) InsertRequest(ctx context.Context, request models.FriendRequest) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO friend_requests (sender_id, sender_name, receiver_id, receiver_name, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, request.SenderID, request.SenderName, request.ReceiverID, request.ReceiverName, request.CreatedAt)
	if err != nil {
		return mapWriteError(err, "insert friend request")
	}
	return nil
}

func (t pgFriendTx) DeleteRequest(ctx context.Context, senderID, receiverID string) error {
	tag, err := t.tx.Exec(ctx, `
        DELETE FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2
    `, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (t pgFriendTx) InsertFriendship(ctx context.Context, userID string, friend models.FriendEntry, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO friendships (user_id, friend_id, friend_name, created_at)
        VALUES ($1, $2, $3, $4)
    `, userID, friend.FriendID, friend.FriendName, at)
	if err != nil {
		return mapWriteError(err, "insert friendship")
	}
	return nil
}

func userExists(ctx context.Context, q querier, userID string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func areFriends(ctx context.Context, q querier, userID, otherID string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)
    `, userID, otherID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return ok, nil
}
