package library

import (
	"fmt"
)

func addEpisode(q querier, e *Episode) error {
	if e.AirStatus == "" {
		e.AirStatus = "aired"
	}
	result, err := q.Exec(`
		INSERT INTO episodes (item_id, season, episode, air_status)
		VALUES (?, ?, ?, ?)`,
		e.ItemID, e.Season, e.Episode, e.AirStatus,
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// AddEpisode inserts a new episode. Sets ID on the struct.
// Returns ErrDuplicate when the (item, season, episode) tuple already exists.
func (s *Store) AddEpisode(e *Episode) error { return addEpisode(s.db, e) }

// AddEpisode inserts a new episode within a transaction.
func (t *Tx) AddEpisode(e *Episode) error { return addEpisode(t.tx, e) }

func getEpisode(q querier, id int64) (*Episode, error) {
	e := &Episode{}
	err := q.QueryRow(`
		SELECT id, item_id, season, episode, air_status
		FROM episodes WHERE id = ?`, id,
	).Scan(&e.ID, &e.ItemID, &e.Season, &e.Episode, &e.AirStatus)
	if err != nil {
		return nil, fmt.Errorf("get episode %d: %w", id, mapSQLiteError(err))
	}
	return e, nil
}

// GetEpisode retrieves an episode by ID.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) GetEpisode(id int64) (*Episode, error) { return getEpisode(s.db, id) }

// GetEpisode retrieves an episode by ID within a transaction.
func (t *Tx) GetEpisode(id int64) (*Episode, error) { return getEpisode(t.tx, id) }

// GetEpisodeByNumber finds an episode by its (item, season, episode) tuple.
// Returns ErrNotFound when the show has no such episode.
func (s *Store) GetEpisodeByNumber(itemID int64, season, episode int) (*Episode, error) {
	e := &Episode{}
	err := s.db.QueryRow(`
		SELECT id, item_id, season, episode, air_status
		FROM episodes WHERE item_id = ? AND season = ? AND episode = ?`,
		itemID, season, episode,
	).Scan(&e.ID, &e.ItemID, &e.Season, &e.Episode, &e.AirStatus)
	if err != nil {
		return nil, fmt.Errorf("get episode S%02dE%02d of item %d: %w",
			season, episode, itemID, mapSQLiteError(err))
	}
	return e, nil
}

func listEpisodes(q querier, itemID int64) ([]*Episode, error) {
	rows, err := q.Query(`
		SELECT id, item_id, season, episode, air_status
		FROM episodes WHERE item_id = ?
		ORDER BY season, episode`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		e := &Episode{}
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Season, &e.Episode, &e.AirStatus); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// ListEpisodes returns all known episodes of an item ordered by number.
func (s *Store) ListEpisodes(itemID int64) ([]*Episode, error) { return listEpisodes(s.db, itemID) }

// ListEpisodes returns all known episodes of an item within a transaction.
func (t *Tx) ListEpisodes(itemID int64) ([]*Episode, error) { return listEpisodes(t.tx, itemID) }
