package library

import (
	"fmt"
	"time"
)

const pointerColumns = `
	p.id, p.item_id, p.episode_id, p.quality, p.path, p.status,
	p.link, p.resolved_at, p.fail_count, p.source_ref,
	p.added_at, p.updated_at, i.content_id`

const pointerFrom = ` FROM pointers p JOIN items i ON i.id = p.item_id`

func scanPointer(row interface{ Scan(...any) error }) (*Pointer, error) {
	p := &Pointer{}
	err := row.Scan(&p.ID, &p.ItemID, &p.EpisodeID, &p.Quality, &p.Path, &p.Status,
		&p.Link, &p.ResolvedAt, &p.FailCount, &p.SourceRef,
		&p.AddedAt, &p.UpdatedAt, &p.ContentID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func addPointer(q querier, p *Pointer) error {
	if p.Status == "" {
		p.Status = StatusUnresolved
	}
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO pointers (item_id, episode_id, quality, path, status, link,
			resolved_at, fail_count, source_ref, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ItemID, p.EpisodeID, p.Quality, p.Path, p.Status, p.Link,
		p.ResolvedAt, p.FailCount, p.SourceRef, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert pointer: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	p.ID = id
	p.AddedAt = now
	p.UpdatedAt = now
	return nil
}

// AddPointer inserts a new pointer. Sets ID, AddedAt, and UpdatedAt.
// Returns ErrDuplicate when the (item, episode, quality) variant exists.
func (s *Store) AddPointer(p *Pointer) error { return addPointer(s.db, p) }

// AddPointer inserts a new pointer within a transaction.
func (t *Tx) AddPointer(p *Pointer) error { return addPointer(t.tx, p) }

func getPointer(q querier, id int64) (*Pointer, error) {
	p, err := scanPointer(q.QueryRow(`SELECT`+pointerColumns+pointerFrom+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get pointer %d: %w", id, mapSQLiteError(err))
	}
	return p, nil
}

// GetPointer retrieves a pointer by ID.
// Returns ErrNotFound if the pointer does not exist.
func (s *Store) GetPointer(id int64) (*Pointer, error) { return getPointer(s.db, id) }

// GetPointer retrieves a pointer by ID within a transaction.
func (t *Tx) GetPointer(id int64) (*Pointer, error) { return getPointer(t.tx, id) }

// GetPointerByVariant finds the pointer for an (item, episode, quality)
// variant. episodeID is nil for movies. Returns ErrNotFound when absent.
func (s *Store) GetPointerByVariant(itemID int64, episodeID *int64, quality string) (*Pointer, error) {
	p, err := scanPointer(s.db.QueryRow(`SELECT`+pointerColumns+pointerFrom+`
		WHERE p.item_id = ? AND IFNULL(p.episode_id, 0) = IFNULL(?, 0) AND p.quality = ?`,
		itemID, episodeID, quality))
	if err != nil {
		return nil, fmt.Errorf("get pointer variant: %w", mapSQLiteError(err))
	}
	return p, nil
}

// PointerFilter narrows ListPointers results. Zero values mean "any".
type PointerFilter struct {
	ItemID int64
	Status LinkStatus
}

// ListPointers returns pointers matching the filter, ordered by path.
func (s *Store) ListPointers(f PointerFilter) ([]*Pointer, error) {
	query := `SELECT` + pointerColumns + pointerFrom
	var (
		conds []string
		args  []any
	)
	if f.ItemID != 0 {
		conds = append(conds, `p.item_id = ?`)
		args = append(args, f.ItemID)
	}
	if f.Status != "" {
		conds = append(conds, `p.status = ?`)
		args = append(args, f.Status)
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY p.path`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pointers: %w", err)
	}
	defer rows.Close()

	var pointers []*Pointer
	for rows.Next() {
		p, err := scanPointer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pointer: %w", err)
		}
		pointers = append(pointers, p)
	}
	return pointers, rows.Err()
}

// PointersDue returns pointers whose cached link needs re-resolution:
// valid links resolved before the cutoff (horizon minus safety margin ago)
// and stale links from a previous failed cycle.
func (s *Store) PointersDue(now time.Time, horizon, margin time.Duration) ([]*Pointer, error) {
	cutoff := now.Add(-(horizon - margin))
	rows, err := s.db.Query(`SELECT`+pointerColumns+pointerFrom+`
		WHERE (p.status = ? AND p.resolved_at <= ?) OR p.status = ?
		ORDER BY p.resolved_at`,
		StatusValid, cutoff, StatusStale,
	)
	if err != nil {
		return nil, fmt.Errorf("list due pointers: %w", err)
	}
	defer rows.Close()

	var pointers []*Pointer
	for rows.Next() {
		p, err := scanPointer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pointer: %w", err)
		}
		pointers = append(pointers, p)
	}
	return pointers, rows.Err()
}

func deletePointer(q querier, id int64) error {
	if _, err := q.Exec(`DELETE FROM pointers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete pointer %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeletePointer removes a pointer record. Deleting an already-removed
// pointer is a no-op.
func (s *Store) DeletePointer(id int64) error { return deletePointer(s.db, id) }

// DeletePointer removes a pointer record within a transaction.
func (t *Tx) DeletePointer(id int64) error { return deletePointer(t.tx, id) }

// SwapLink atomically replaces a pointer's cached link. The row update is
// the linearization point: a concurrent reader sees either the old link or
// the new one, never a mix. Status becomes valid and the failure count
// resets.
func (s *Store) SwapLink(id int64, link string, resolvedAt time.Time) error {
	result, err := s.db.Exec(`
		UPDATE pointers
		SET link = ?, resolved_at = ?, status = ?, fail_count = 0, updated_at = ?
		WHERE id = ?`,
		link, resolvedAt, StatusValid, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("swap link for pointer %d: %w", id, mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("swap link for pointer %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkStale records a refresh or playback failure. The first failure
// downgrades valid to stale and the old link keeps serving; the second
// consecutive failure lands invalid, which blocks redirects until the
// pointer is re-resolved. Returns the status after the downgrade.
func (s *Store) MarkStale(id int64) (LinkStatus, error) {
	_, err := s.db.Exec(`
		UPDATE pointers
		SET status = CASE WHEN fail_count + 1 >= 2 THEN ? ELSE ? END,
		    fail_count = fail_count + 1,
		    updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		StatusInvalid, StatusStale, time.Now(), id, StatusValid, StatusStale,
	)
	if err != nil {
		return "", fmt.Errorf("mark pointer %d stale: %w", id, mapSQLiteError(err))
	}

	var status LinkStatus
	err = s.db.QueryRow(`SELECT status FROM pointers WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("mark pointer %d stale: %w", id, mapSQLiteError(err))
	}
	return status, nil
}

// MarkInvalid downgrades a pointer directly to invalid.
func (s *Store) MarkInvalid(id int64) error {
	if _, err := s.db.Exec(`
		UPDATE pointers SET status = ?, updated_at = ? WHERE id = ?`,
		StatusInvalid, time.Now(), id,
	); err != nil {
		return fmt.Errorf("mark pointer %d invalid: %w", id, mapSQLiteError(err))
	}
	return nil
}
