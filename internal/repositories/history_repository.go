package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/history"
	"github.com/todoshare/backend/internal/models"
)

// PostgresHistoryRepository implements history.Store.
type PostgresHistoryRepository struct {
	pool db.Pool
}

var _ history.Store = (*PostgresHistoryRepository)(nil)

// NewPostgresHistoryRepository constructs a history repository backed by PostgreSQL.
func NewPostgresHistoryRepository(pool db.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

const historyColumns = `id, list_id, item_id, sub_item_id, key, item_values, created_at`

func scanHistory(row pgx.Row) (models.History, error) {
	var h models.History
	var values []byte
	err := row.Scan(&h.ID, &h.ListID, &h.ItemID, &h.SubItemID, &h.Key, &values, &h.CreatedAt)
	if len(values) > 0 {
		h.ItemValues = values
	}
	h.CreatedAt = h.CreatedAt.UTC()
	return h, err
}

func (r *PostgresHistoryRepository) Add(ctx context.Context, entry models.History) error {
	return withConn(ctx, r.pool, func(q querier) error {
		var values any
		if len(entry.ItemValues) > 0 {
			values = string(entry.ItemValues)
		}
		_, err := q.Exec(ctx, `INSERT INTO history (`+historyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.ID, entry.ListID, entry.ItemID, entry.SubItemID, entry.Key, values, entry.CreatedAt)
		if err != nil {
			return mapWriteError(err, "insert history")
		}
		return nil
	})
}

func (r *PostgresHistoryRepository) Get(ctx context.Context, historyID string) (models.History, error) {
	var entry models.History
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		entry, err = scanHistory(q.QueryRow(ctx, `SELECT `+historyColumns+` FROM history WHERE id = $1`, historyID))
		if err != nil {
			return mapReadError(err, "select history")
		}
		return nil
	})
	return entry, err
}

func (r *PostgresHistoryRepository) Delete(ctx context.Context, historyID string) error {
	return withConn(ctx, r.pool, func(q querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM history WHERE id = $1`, historyID)
		if err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresHistoryRepository) ByList(ctx context.Context, listID string) ([]models.History, error) {
	var entries []models.History
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		entries, err = historyByList(ctx, q, listID)
		return err
	})
	return entries, err
}

func historyByList(ctx context.Context, q querier, listID string) ([]models.History, error) {
	rows, err := q.Query(ctx, `SELECT `+historyColumns+` FROM history WHERE list_id = $1 ORDER BY created_at DESC, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []models.History{}
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
