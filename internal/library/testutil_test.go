package library

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/strmd/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}

func addTestMovie(t *testing.T, store *Store, title, contentID string) *Item {
	t.Helper()
	it := &Item{Kind: KindMovie, ContentID: contentID, Title: title, Year: 2020}
	if err := store.AddItem(it); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return it
}

func addTestPointer(t *testing.T, store *Store, itemID int64, episodeID *int64, quality, path string) *Pointer {
	t.Helper()
	p := &Pointer{ItemID: itemID, EpisodeID: episodeID, Quality: quality, Path: path}
	if err := store.AddPointer(p); err != nil {
		t.Fatalf("AddPointer: %v", err)
	}
	return p
}
