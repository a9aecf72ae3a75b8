package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is satisfied by *pgxpool.Conn and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// mapWriteError translates constraint violations into store sentinels.
func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return db.ErrConflict
		case pgForeignKeyViolation:
			return db.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapReadError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return db.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// withConn runs fn on a pooled connection.
func withConn(ctx context.Context, pool db.Pool, fn func(q querier) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, first_name, last_name, country_name, mobile_number, email, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.CountryName, &user.MobileNumber,
		&user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, err
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	return withConn(ctx, r.pool, func(q querier) error {
		_, err := q.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.FirstName, user.LastName, user.CountryName, user.MobileNumber,
			user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return mapWriteError(err, "insert user")
		}
		return nil
	})
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		user, err = scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		if err != nil {
			return mapReadError(err, "select user by email")
		}
		return nil
	})
	return user, err
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		user, err = scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		if err != nil {
			return mapReadError(err, "select user by id")
		}
		return nil
	})
	return user, err
}

// List returns every user ordered by sign-up time.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := withConn(ctx, r.pool, func(q querier) error {
		rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	return users, err
}

// Delete removes a user. Sessions, relationships and lists cascade.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	return withConn(ctx, r.pool, func(q querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil
	})
}
