package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmunix/strmd/internal/events"
	"github.com/vmunix/strmd/internal/library"
)

// Options configures a Writer.
type Options struct {
	// MoviesRoot and TVRoot are the library directories pointer files
	// live under.
	MoviesRoot string
	TVRoot     string

	// BaseURL is the public address of the redirect server; every
	// pointer file contains a URL below it.
	BaseURL string

	// MediaServer, when set, receives best-effort scan notifications
	// after library mutations.
	MediaServer MediaServer
}

// Writer creates and removes pointer files and keeps their database
// records in step. It is the only component that touches the library tree.
type Writer struct {
	store   *library.Store
	renamer *Renamer
	opts    Options
	bus     *events.Bus
	log     *slog.Logger

	// itemLocks serializes episode syncs per item; different items sync
	// in parallel.
	itemLocks sync.Map
}

// New creates a Writer. bus may be nil.
func New(store *library.Store, renamer *Renamer, opts Options, bus *events.Bus, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	if renamer == nil {
		renamer = NewRenamer("", "")
	}
	return &Writer{
		store:   store,
		renamer: renamer,
		opts:    opts,
		bus:     bus,
		log:     log.With("component", "writer"),
	}
}

// pointerPath builds the absolute file path for a variant.
func (w *Writer) pointerPath(item *library.Item, ep *library.Episode, quality string) string {
	if ep != nil {
		rel := w.renamer.EpisodePath(item.Title, item.Year, ep.Season, ep.Episode, quality)
		return filepath.Join(w.opts.TVRoot, rel)
	}
	rel := w.renamer.MoviePath(item.Title, item.Year, quality)
	return filepath.Join(w.opts.MoviesRoot, rel)
}

// redirectURL is what a pointer file contains: a stable URL keyed by the
// pointer's id, never the raw stream link.
func (w *Writer) redirectURL(pointerID int64, quality string) string {
	return fmt.Sprintf("%s/stream/%d?quality=%s", w.opts.BaseURL, pointerID, quality)
}

// CreatePointer creates the record and file for one quality variant.
// Idempotent: an existing (item, episode, quality) variant is returned
// as-is, with its file rewritten if missing.
func (w *Writer) CreatePointer(ctx context.Context, item *library.Item, ep *library.Episode, quality, sourceRef string) (*library.Pointer, error) {
	p, created, err := w.createPointer(ctx, item, ep, quality, sourceRef)
	if err != nil {
		return nil, err
	}
	if created {
		w.notifyScan(ctx, p.Path)
	}
	return p, nil
}

// createPointer does the record and file work without the scan
// notification; the returned bool reports whether a new pointer was made.
func (w *Writer) createPointer(ctx context.Context, item *library.Item, ep *library.Episode, quality, sourceRef string) (*library.Pointer, bool, error) {
	var epID *int64
	if ep != nil {
		epID = &ep.ID
	}

	existing, err := w.store.GetPointerByVariant(item.ID, epID, quality)
	switch {
	case err == nil:
		if err := w.writeFile(existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, library.ErrNotFound):
		return nil, false, fmt.Errorf("lookup variant: %w", err)
	}

	p := &library.Pointer{
		ItemID:    item.ID,
		EpisodeID: epID,
		Quality:   quality,
		Path:      w.pointerPath(item, ep, quality),
		Status:    library.StatusUnresolved,
		SourceRef: sourceRef,
	}
	if err := w.store.AddPointer(p); err != nil {
		// A concurrent create won the race; the variant is unique.
		if errors.Is(err, library.ErrDuplicate) {
			p, err := w.store.GetPointerByVariant(item.ID, epID, quality)
			return p, false, err
		}
		return nil, false, fmt.Errorf("add pointer: %w", err)
	}

	if err := w.writeFile(p); err != nil {
		_ = w.store.DeletePointer(p.ID)
		return nil, false, err
	}

	w.log.Info("pointer created", "pointer_id", p.ID, "path", p.Path, "quality", quality)
	w.publish(ctx, events.NewPointerCreated(p.ID, p.Path, quality))
	return p, true, nil
}

// writeFile writes the pointer file, creating parent directories. Safe to
// call on an existing pointer; content is deterministic.
func (w *Writer) writeFile(p *library.Pointer) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create pointer dir: %w", err)
	}
	content := w.redirectURL(p.ID, p.Quality) + "\n"
	if err := os.WriteFile(p.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write pointer file: %w", err)
	}
	return nil
}

// RemovePointer removes a pointer's file and record. Removing an unknown
// pointer is a no-op.
func (w *Writer) RemovePointer(ctx context.Context, id int64) error {
	p, err := w.store.GetPointer(id)
	if errors.Is(err, library.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get pointer: %w", err)
	}

	w.removeFile(p.Path)
	if err := w.store.DeletePointer(id); err != nil {
		return fmt.Errorf("delete pointer: %w", err)
	}

	w.log.Info("pointer removed", "pointer_id", id, "path", p.Path)
	w.publish(ctx, events.NewPointerRemoved(id, p.Path))
	w.notifyScan(ctx, p.Path)
	return nil
}

// RemoveItem removes an item, its pointer files, and (via the store
// cascade) all episode and pointer records.
func (w *Writer) RemoveItem(ctx context.Context, itemID int64) error {
	pointers, err := w.store.ListPointers(library.PointerFilter{ItemID: itemID})
	if err != nil {
		return fmt.Errorf("list pointers: %w", err)
	}

	for _, p := range pointers {
		w.removeFile(p.Path)
		w.publish(ctx, events.NewPointerRemoved(p.ID, p.Path))
	}
	if err := w.store.DeleteItem(itemID); err != nil && !errors.Is(err, library.ErrNotFound) {
		return fmt.Errorf("delete item: %w", err)
	}

	w.log.Info("item removed", "item_id", itemID, "pointers", len(pointers))
	if len(pointers) > 0 {
		w.notifyScan(ctx, pointers[0].Path)
	}
	return nil
}

// removeFile deletes a pointer file and prunes its directory when empty.
func (w *Writer) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.log.Warn("remove pointer file", "path", path, "error", err)
		return
	}
	// Season and title directories disappear with their last pointer.
	for dir := filepath.Dir(path); dir != w.opts.MoviesRoot && dir != w.opts.TVRoot; dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
}

// EpisodeRef identifies one upstream episode during a sync.
type EpisodeRef struct {
	Season  int
	Episode int
}

// SyncEpisodes diffs upstream episodes against the stored set, creates
// episodes and pointers for the new ones, and returns the newly discovered
// episodes. Nothing is ever deleted here. Syncs for one item are
// serialized; different items run in parallel.
func (w *Writer) SyncEpisodes(ctx context.Context, item *library.Item, upstream []EpisodeRef, quality, sourceRef string) ([]*library.Episode, error) {
	mu := w.lockFor(item.ID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := w.store.ListEpisodes(item.ID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	known := make(map[[2]int]*library.Episode, len(existing))
	for _, e := range existing {
		known[[2]int{e.Season, e.Episode}] = e
	}

	var discovered []*library.Episode
	firstCreated := ""
	for _, ref := range upstream {
		ep := known[[2]int{ref.Season, ref.Episode}]
		if ep == nil {
			ep = &library.Episode{
				ItemID:  item.ID,
				Season:  ref.Season,
				Episode: ref.Episode,
			}
			if err := w.store.AddEpisode(ep); err != nil {
				return nil, fmt.Errorf("add episode S%02dE%02d: %w", ref.Season, ref.Episode, err)
			}
			known[[2]int{ref.Season, ref.Episode}] = ep
			discovered = append(discovered, ep)
		}
		p, created, err := w.createPointer(ctx, item, ep, quality, sourceRef)
		if err != nil {
			return nil, fmt.Errorf("create pointer S%02dE%02d: %w", ref.Season, ref.Episode, err)
		}
		if created && firstCreated == "" {
			firstCreated = p.Path
		}
	}

	// One scan notification covers the whole batch.
	if firstCreated != "" {
		w.notifyScan(ctx, firstCreated)
	}
	if len(discovered) > 0 {
		w.log.Info("episodes synced", "item_id", item.ID, "new", len(discovered))
	}
	return discovered, nil
}

func (w *Writer) lockFor(itemID int64) *sync.Mutex {
	mu, _ := w.itemLocks.LoadOrStore(itemID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (w *Writer) publish(ctx context.Context, e events.Event) {
	if w.bus == nil {
		return
	}
	if err := w.bus.Publish(ctx, e); err != nil {
		w.log.Warn("publish event", "type", e.EventType(), "error", err)
	}
}

func (w *Writer) notifyScan(ctx context.Context, path string) {
	if w.opts.MediaServer == nil {
		return
	}
	if err := w.opts.MediaServer.ScanPath(ctx, path); err != nil {
		w.log.Warn("media server scan", "path", path, "error", err)
	}
}
