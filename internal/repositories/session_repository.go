package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
)

// PostgresSessionStore keeps refresh-token digests in the sessions table.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	return withConn(ctx, s.pool, func(q querier) error {
		_, err := q.Exec(ctx,
			`INSERT INTO sessions (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
			session.TokenHash, session.UserID, session.ExpiresAt.UTC())
		return mapWriteError(err, "insert session")
	})
}

// Consume deletes the session and returns the deleted row in one statement.
func (s *PostgresSessionStore) Consume(ctx context.Context, tokenHash string) (auth.Session, error) {
	var session auth.Session
	err := withConn(ctx, s.pool, func(q querier) error {
		err := q.QueryRow(ctx,
			`DELETE FROM sessions WHERE token_hash = $1 RETURNING token_hash, user_id, expires_at`,
			tokenHash,
		).Scan(&session.TokenHash, &session.UserID, &session.ExpiresAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("consume session: %w", err)
		}
		session.ExpiresAt = session.ExpiresAt.UTC()
		return nil
	})
	return session, err
}

func (s *PostgresSessionStore) DeleteForUser(ctx context.Context, userID string) error {
	return withConn(ctx, s.pool, func(q querier) error {
		if _, err := q.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		return nil
	})
}
