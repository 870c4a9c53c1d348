package library

import (
	"fmt"
	"time"
)

func addItem(q querier, it *Item) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO items (kind, content_id, title, year, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		it.Kind, it.ContentID, it.Title, it.Year, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	it.ID = id
	it.AddedAt = now
	it.UpdatedAt = now
	return nil
}

// AddItem inserts a new library item.
// Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddItem(it *Item) error { return addItem(s.db, it) }

// AddItem inserts a new library item within a transaction.
func (t *Tx) AddItem(it *Item) error { return addItem(t.tx, it) }

func getItem(q querier, id int64) (*Item, error) {
	it := &Item{}
	err := q.QueryRow(`
		SELECT id, kind, content_id, title, year, added_at, updated_at
		FROM items WHERE id = ?`, id,
	).Scan(&it.ID, &it.Kind, &it.ContentID, &it.Title, &it.Year, &it.AddedAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, mapSQLiteError(err))
	}
	return it, nil
}

// GetItem retrieves an item by ID.
// Returns ErrNotFound if the item does not exist.
func (s *Store) GetItem(id int64) (*Item, error) { return getItem(s.db, id) }

// GetItem retrieves an item by ID within a transaction.
func (t *Tx) GetItem(id int64) (*Item, error) { return getItem(t.tx, id) }

// GetItemByContentID finds an item by its stable content identifier.
// Returns ErrNotFound when no item carries the identifier.
func (s *Store) GetItemByContentID(contentID string) (*Item, error) {
	it := &Item{}
	err := s.db.QueryRow(`
		SELECT id, kind, content_id, title, year, added_at, updated_at
		FROM items WHERE content_id = ?`, contentID,
	).Scan(&it.ID, &it.Kind, &it.ContentID, &it.Title, &it.Year, &it.AddedAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get item by content id %q: %w", contentID, mapSQLiteError(err))
	}
	return it, nil
}

// ListItems returns all items, optionally filtered by kind.
func (s *Store) ListItems(kind ItemKind) ([]*Item, error) {
	query := `SELECT id, kind, content_id, title, year, added_at, updated_at FROM items`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY title`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.Kind, &it.ContentID, &it.Title, &it.Year, &it.AddedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func deleteItem(q querier, id int64) error {
	result, err := q.Exec(`DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete item %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteItem removes an item. Episodes and pointers cascade.
// Returns ErrNotFound if the item does not exist.
func (s *Store) DeleteItem(id int64) error { return deleteItem(s.db, id) }

// DeleteItem removes an item within a transaction.
func (t *Tx) DeleteItem(id int64) error { return deleteItem(t.tx, id) }
