package writer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/strmd/internal/library"
	"github.com/vmunix/strmd/internal/migrations"
)

type testEnv struct {
	writer *Writer
	store  *library.Store
	movies string
	tv     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	root := t.TempDir()
	env := &testEnv{
		store:  library.NewStore(db),
		movies: filepath.Join(root, "Movies"),
		tv:     filepath.Join(root, "TV Shows"),
	}
	env.writer = New(env.store, NewRenamer("", ""), Options{
		MoviesRoot: env.movies,
		TVRoot:     env.tv,
		BaseURL:    "http://localhost:8330",
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return env
}

func (env *testEnv) addMovie(t *testing.T, title string, year int) *library.Item {
	t.Helper()
	item := &library.Item{
		Kind:      library.KindMovie,
		ContentID: fmt.Sprintf("tt%07d", year),
		Title:     title,
		Year:      year,
	}
	if err := env.store.AddItem(item); err != nil {
		t.Fatalf("add item: %v", err)
	}
	return item
}

func (env *testEnv) addShow(t *testing.T, title string, year int) *library.Item {
	t.Helper()
	item := &library.Item{
		Kind:      library.KindShow,
		ContentID: fmt.Sprintf("tt1%06d", year),
		Title:     title,
		Year:      year,
	}
	if err := env.store.AddItem(item); err != nil {
		t.Fatalf("add item: %v", err)
	}
	return item
}

func TestCreatePointerMovie(t *testing.T) {
	env := newTestEnv(t)
	item := env.addMovie(t, "The Matrix", 1999)

	p, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("create pointer: %v", err)
	}

	wantPath := filepath.Join(env.movies, "The Matrix (1999)", "The Matrix (1999) - 1080p.strm")
	if p.Path != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, p.Path)
	}
	if p.Status != library.StatusUnresolved {
		t.Errorf("expected unresolved status, got %s", p.Status)
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		t.Fatalf("read pointer file: %v", err)
	}
	want := fmt.Sprintf("http://localhost:8330/stream/%d?quality=1080p\n", p.ID)
	if string(data) != want {
		t.Errorf("expected file content %q, got %q", want, data)
	}
}

func TestCreatePointerEpisode(t *testing.T) {
	env := newTestEnv(t)
	item := env.addShow(t, "Breaking Bad", 2008)
	ep := &library.Episode{ItemID: item.ID, Season: 2, Episode: 5}
	if err := env.store.AddEpisode(ep); err != nil {
		t.Fatalf("add episode: %v", err)
	}

	p, err := env.writer.CreatePointer(context.Background(), item, ep, "720p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("create pointer: %v", err)
	}

	wantPath := filepath.Join(env.tv, "Breaking Bad (2008)", "Season 02", "Breaking Bad - S02E05 - 720p.strm")
	if p.Path != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, p.Path)
	}
}

func TestCreatePointerIdempotent(t *testing.T) {
	env := newTestEnv(t)
	item := env.addMovie(t, "The Matrix", 1999)

	first, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:other")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same pointer, got %d and %d", first.ID, second.ID)
	}

	entries, err := os.ReadDir(filepath.Dir(first.Path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one pointer file, got %d", len(entries))
	}
}

func TestCreatePointerRewritesMissingFile(t *testing.T) {
	env := newTestEnv(t)
	item := env.addMovie(t, "The Matrix", 1999)

	p, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := os.Remove(p.Path); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	if _, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc"); err != nil {
		t.Fatalf("re-create: %v", err)
	}
	if _, err := os.Stat(p.Path); err != nil {
		t.Errorf("file not restored: %v", err)
	}
}

func TestCreatePointerSanitizesTitle(t *testing.T) {
	env := newTestEnv(t)
	item := env.addMovie(t, "Face/Off: Collector's Edition", 1997)

	p, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rel, err := filepath.Rel(env.movies, p.Path)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	if strings.Contains(rel, "..") {
		t.Errorf("path escapes root: %s", p.Path)
	}
	if _, err := os.Stat(p.Path); err != nil {
		t.Errorf("pointer file missing: %v", err)
	}
}

func TestRemovePointer(t *testing.T) {
	env := newTestEnv(t)
	item := env.addMovie(t, "The Matrix", 1999)

	p, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := env.writer.RemovePointer(context.Background(), p.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := os.Stat(p.Path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(p.Path)); !os.IsNotExist(err) {
		t.Errorf("empty title dir not pruned: %v", err)
	}
	if _, err := env.store.GetPointer(p.ID); !errors.Is(err, library.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Removing again is a no-op.
	if err := env.writer.RemovePointer(context.Background(), p.ID); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
}

func TestRemoveItemCascades(t *testing.T) {
	env := newTestEnv(t)
	item := env.addMovie(t, "The Matrix", 1999)

	p1, err := env.writer.CreatePointer(context.Background(), item, nil, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("create 1080p: %v", err)
	}
	p2, err := env.writer.CreatePointer(context.Background(), item, nil, "4k", "magnet:?xt=urn:btih:def")
	if err != nil {
		t.Fatalf("create 4k: %v", err)
	}

	if err := env.writer.RemoveItem(context.Background(), item.ID); err != nil {
		t.Fatalf("remove item: %v", err)
	}

	for _, p := range []*library.Pointer{p1, p2} {
		if _, err := os.Stat(p.Path); !os.IsNotExist(err) {
			t.Errorf("file still present: %s", p.Path)
		}
	}
	if _, err := env.store.GetItem(item.ID); !errors.Is(err, library.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	pointers, err := env.store.ListPointers(library.PointerFilter{ItemID: item.ID})
	if err != nil {
		t.Fatalf("list pointers: %v", err)
	}
	if len(pointers) != 0 {
		t.Errorf("expected no pointer records, got %d", len(pointers))
	}
}

func TestSyncEpisodesCreatesOnlyNew(t *testing.T) {
	env := newTestEnv(t)
	item := env.addShow(t, "Breaking Bad", 2008)

	first := []EpisodeRef{{Season: 1, Episode: 1}, {Season: 1, Episode: 2}}
	discovered, err := env.writer.SyncEpisodes(context.Background(), item, first, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if len(discovered) != 2 {
		t.Fatalf("expected 2 discovered episodes, got %d", len(discovered))
	}

	eps, err := env.store.ListEpisodes(item.ID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(eps))
	}

	// Upstream grew by one; existing episodes are left alone.
	second := []EpisodeRef{{Season: 1, Episode: 1}, {Season: 1, Episode: 2}, {Season: 1, Episode: 3}}
	discovered, err = env.writer.SyncEpisodes(context.Background(), item, second, "1080p", "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(discovered) != 1 || discovered[0].Episode != 3 {
		t.Fatalf("expected only S01E03 discovered, got %+v", discovered)
	}

	eps, err = env.store.ListEpisodes(item.ID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(eps) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(eps))
	}
	pointers, err := env.store.ListPointers(library.PointerFilter{ItemID: item.ID})
	if err != nil {
		t.Fatalf("list pointers: %v", err)
	}
	if len(pointers) != 3 {
		t.Errorf("expected 3 pointers, got %d", len(pointers))
	}
}

func TestSyncEpisodesNeverDeletes(t *testing.T) {
	env := newTestEnv(t)
	item := env.addShow(t, "Breaking Bad", 2008)

	if _, err := env.writer.SyncEpisodes(context.Background(), item,
		[]EpisodeRef{{Season: 1, Episode: 1}, {Season: 1, Episode: 2}}, "1080p", "src"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Upstream shrank; nothing goes away.
	discovered, err := env.writer.SyncEpisodes(context.Background(), item,
		[]EpisodeRef{{Season: 1, Episode: 1}}, "1080p", "src")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(discovered) != 0 {
		t.Errorf("expected nothing discovered, got %d", len(discovered))
	}

	eps, err := env.store.ListEpisodes(item.ID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(eps) != 2 {
		t.Errorf("expected both episodes kept, got %d", len(eps))
	}
}

type countingMediaServer struct {
	mu    sync.Mutex
	scans int
}

func (c *countingMediaServer) ScanPath(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scans++
	return nil
}

func (c *countingMediaServer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scans
}

func TestSyncEpisodesNotifiesOncePerBatch(t *testing.T) {
	env := newTestEnv(t)
	ms := &countingMediaServer{}
	env.writer.opts.MediaServer = ms
	item := env.addShow(t, "Breaking Bad", 2008)

	refs := []EpisodeRef{
		{Season: 1, Episode: 1},
		{Season: 1, Episode: 2},
		{Season: 1, Episode: 3},
	}
	if _, err := env.writer.SyncEpisodes(context.Background(), item, refs, "1080p", "src"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got := ms.count(); got != 1 {
		t.Errorf("expected one scan notification per batch, got %d", got)
	}

	// A sync that creates nothing notifies nothing.
	if _, err := env.writer.SyncEpisodes(context.Background(), item, refs, "1080p", "src"); err != nil {
		t.Fatalf("repeat sync: %v", err)
	}
	if got := ms.count(); got != 1 {
		t.Errorf("expected no notification for a no-op sync, got %d total", got)
	}
}

func TestSyncEpisodesConcurrentSameItem(t *testing.T) {
	env := newTestEnv(t)
	item := env.addShow(t, "Breaking Bad", 2008)
	refs := []EpisodeRef{{Season: 1, Episode: 1}, {Season: 1, Episode: 2}}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.writer.SyncEpisodes(context.Background(), item, refs, "1080p", "src"); err != nil {
				t.Errorf("sync: %v", err)
			}
		}()
	}
	wg.Wait()

	eps, err := env.store.ListEpisodes(item.ID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(eps) != 2 {
		t.Errorf("expected 2 episodes after concurrent syncs, got %d", len(eps))
	}
}
