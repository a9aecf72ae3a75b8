package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/lists"
	"github.com/todoshare/backend/internal/models"
)

// PostgresListRepository implements lists.Store.
type PostgresListRepository struct {
	pool db.Pool
}

var _ lists.Store = (*PostgresListRepository)(nil)

// NewPostgresListRepository constructs a list repository backed by PostgreSQL.
func NewPostgresListRepository(pool db.Pool) *PostgresListRepository {
	return &PostgresListRepository{pool: pool}
}

const (
	listColumns    = `id, name, creator_id, creator_name, modifier_id, modifier_name, mode, created_at, modified_at`
	itemColumns    = `id, list_id, name, done, creator_id, creator_name, modifier_id, modifier_name, created_at, modified_at`
	subItemColumns = `id, item_id, name, done, creator_id, creator_name, modifier_id, modifier_name, created_at, modified_at`
)

func scanList(row pgx.Row) (models.List, error) {
	var l models.List
	err := row.Scan(&l.ID, &l.Name, &l.CreatorID, &l.CreatorName, &l.ModifierID, &l.ModifierName,
		&l.Mode, &l.CreatedAt, &l.ModifiedAt)
	l.CreatedAt, l.ModifiedAt = l.CreatedAt.UTC(), l.ModifiedAt.UTC()
	return l, err
}

func scanItem(row pgx.Row) (models.Item, error) {
	var it models.Item
	err := row.Scan(&it.ID, &it.ListID, &it.Name, &it.Done, &it.CreatorID, &it.CreatorName,
		&it.ModifierID, &it.ModifierName, &it.CreatedAt, &it.ModifiedAt)
	it.CreatedAt, it.ModifiedAt = it.CreatedAt.UTC(), it.ModifiedAt.UTC()
	it.SubItems = []models.SubItem{}
	return it, err
}

func scanSubItem(row pgx.Row) (models.SubItem, error) {
	var sub models.SubItem
	err := row.Scan(&sub.ID, &sub.ItemID, &sub.Name, &sub.Done, &sub.CreatorID, &sub.CreatorName,
		&sub.ModifierID, &sub.ModifierName, &sub.CreatedAt, &sub.ModifiedAt)
	sub.CreatedAt, sub.ModifiedAt = sub.CreatedAt.UTC(), sub.ModifiedAt.UTC()
	return sub, err
}

func (r *PostgresListRepository) CreateList(ctx context.Context, list models.List) error {
	return withConn(ctx, r.pool, func(q querier) error {
		_, err := q.Exec(ctx, `INSERT INTO lists (`+listColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			list.ID, list.Name, list.CreatorID, list.CreatorName, list.ModifierID, list.ModifierName,
			list.Mode, list.CreatedAt, list.ModifiedAt)
		if err != nil {
			return mapWriteError(err, "insert list")
		}
		return nil
	})
}

func (r *PostgresListRepository) GetList(ctx context.Context, listID string) (models.List, error) {
	var list models.List
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		list, err = scanList(q.QueryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1`, listID))
		if err != nil {
			return mapReadError(err, "select list")
		}
		return nil
	})
	return list, err
}

func (r *PostgresListRepository) UpdateList(ctx context.Context, list models.List) error {
	return withConn(ctx, r.pool, func(q querier) error {
		tag, err := q.Exec(ctx, `
        UPDATE lists
        SET name = $2, modifier_id = $3, modifier_name = $4, mode = $5, modified_at = $6
        WHERE id = $1
    `, list.ID, list.Name, list.ModifierID, list.ModifierName, list.Mode, list.ModifiedAt)
		if err != nil {
			return fmt.Errorf("update list: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil
	})
}

// DeleteList reads the list's contents and deletes it in one transaction so
// the returned snapshot matches what was removed.
func (r *PostgresListRepository) DeleteList(ctx context.Context, listID string) (models.ListSnapshot, error) {
	var snapshot models.ListSnapshot
	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		list, err := scanList(tx.QueryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1`, listID))
		if err != nil {
			return mapReadError(err, "select list")
		}

		items, err := itemsByList(ctx, tx, listID)
		if err != nil {
			return err
		}
		entries, err := historyByList(ctx, tx, listID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM lists WHERE id = $1`, listID); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}

		snapshot = models.ListSnapshot{List: list, Items: items, History: entries}
		return nil
	})
	return snapshot, err
}

func (r *PostgresListRepository) ListsByCreator(ctx context.Context, creatorID string) ([]models.List, error) {
	return r.queryLists(ctx, `SELECT `+listColumns+` FROM lists WHERE creator_id = $1 ORDER BY created_at, id`, creatorID)
}

func (r *PostgresListRepository) PublicListsByCreators(ctx context.Context, creatorIDs []string) ([]models.List, error) {
	return r.queryLists(ctx, `
        SELECT `+listColumns+` FROM lists
        WHERE creator_id = ANY($1) AND mode = 'public'
        ORDER BY created_at, id
    `, creatorIDs)
}

func (r *PostgresListRepository) queryLists(ctx context.Context, query string, arg any) ([]models.List, error) {
	out := []models.List{}
	err := withConn(ctx, r.pool, func(q querier) error {
		rows, err := q.Query(ctx, query, arg)
		if err != nil {
			return fmt.Errorf("list lists: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			list, err := scanList(rows)
			if err != nil {
				return fmt.Errorf("scan list: %w", err)
			}
			out = append(out, list)
		}
		return rows.Err()
	})
	return out, err
}

func (r *PostgresListRepository) CreateItem(ctx context.Context, item models.Item) error {
	return withConn(ctx, r.pool, func(q querier) error {
		_, err := q.Exec(ctx, `INSERT INTO items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			item.ID, item.ListID, item.Name, item.Done, item.CreatorID, item.CreatorName,
			item.ModifierID, item.ModifierName, item.CreatedAt, item.ModifiedAt)
		if err != nil {
			return mapWriteError(err, "insert item")
		}
		return nil
	})
}

func (r *PostgresListRepository) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	var item models.Item
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		item, err = scanItem(q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, itemID))
		if err != nil {
			return mapReadError(err, "select item")
		}

		subs, err := subItemsOf(ctx, q, `WHERE item_id = $1`, itemID)
		if err != nil {
			return err
		}
		item.SubItems = subs[item.ID]
		if item.SubItems == nil {
			item.SubItems = []models.SubItem{}
		}
		return nil
	})
	return item, err
}

func (r *PostgresListRepository) UpdateItem(ctx context.Context, item models.Item) error {
	return r.execOne(ctx, "update item", `
        UPDATE items
        SET name = $2, done = $3, modifier_id = $4, modifier_name = $5, modified_at = $6
        WHERE id = $1
    `, item.ID, item.Name, item.Done, item.ModifierID, item.ModifierName, item.ModifiedAt)
}

func (r *PostgresListRepository) DeleteItem(ctx context.Context, itemID string) error {
	return r.execOne(ctx, "delete item", `DELETE FROM items WHERE id = $1`, itemID)
}

func (r *PostgresListRepository) ItemsByList(ctx context.Context, listID string) ([]models.Item, error) {
	var items []models.Item
	err := withConn(ctx, r.pool, func(q querier) error {
		var err error
		items, err = itemsByList(ctx, q, listID)
		return err
	})
	return items, err
}

func (r *PostgresListRepository) CreateSubItem(ctx context.Context, sub models.SubItem) error {
	return withConn(ctx, r.pool, func(q querier) error {
		_, err := q.Exec(ctx, `INSERT INTO sub_items (`+subItemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sub.ID, sub.ItemID, sub.Name, sub.Done, sub.CreatorID, sub.CreatorName,
			sub.ModifierID, sub.ModifierName, sub.CreatedAt, sub.ModifiedAt)
		if err != nil {
			return mapWriteError(err, "insert sub item")
		}
		return nil
	})
}

func (r *PostgresListRepository) UpdateSubItem(ctx context.Context, sub models.SubItem) error {
	return r.execOne(ctx, "update sub item", `
        UPDATE sub_items
        SET name = $3, done = $4, modifier_id = $5, modifier_name = $6, modified_at = $7
        WHERE id = $1 AND item_id = $2
    `, sub.ID, sub.ItemID, sub.Name, sub.Done, sub.ModifierID, sub.ModifierName, sub.ModifiedAt)
}

func (r *PostgresListRepository) DeleteSubItem(ctx context.Context, itemID, subItemID string) error {
	return r.execOne(ctx, "delete sub item", `DELETE FROM sub_items WHERE id = $1 AND item_id = $2`, subItemID, itemID)
}

// execOne runs a statement expected to touch exactly one row.
func (r *PostgresListRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	return withConn(ctx, r.pool, func(q querier) error {
		tag, err := q.Exec(ctx, query, args...)
		if err != nil {
			return mapWriteError(err, op)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil
	})
}

func itemsByList(ctx context.Context, q querier, listID string) ([]models.Item, error) {
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE list_id = $1 ORDER BY created_at, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	subs, err := subItemsOf(ctx, q, `WHERE item_id IN (SELECT id FROM items WHERE list_id = $1)`, listID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if s, ok := subs[items[i].ID]; ok {
			items[i].SubItems = s
		}
	}
	return items, nil
}

// subItemsOf groups the sub-items matched by where by their parent item.
func subItemsOf(ctx context.Context, q querier, where string, arg any) (map[string][]models.SubItem, error) {
	rows, err := q.Query(ctx, `SELECT `+subItemColumns+` FROM sub_items `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list sub items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.SubItem)
	for rows.Next() {
		sub, err := scanSubItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sub item: %w", err)
		}
		out[sub.ItemID] = append(out[sub.ItemID], sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub items: %w", err)
	}
	return out, nil
}
