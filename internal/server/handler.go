package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/strmd/internal/debrid"
	"github.com/vmunix/strmd/internal/events"
	"github.com/vmunix/strmd/internal/library"
	"github.com/vmunix/strmd/internal/writer"
	"github.com/vmunix/strmd/pkg/release"
)

// resolveTimeout bounds one resolution attempt inside the acquisition
// pipeline; a reference that is not cached yet stays unresolved and is
// retried at playback or refresh time.
const resolveTimeout = 5 * time.Minute

// Handler consumes acquisition events and turns them into library items,
// episodes, and pointer files.
type Handler struct {
	store          *library.Store
	writer         *writer.Writer
	resolver       *debrid.Resolver
	defaultQuality string
	log            *slog.Logger
}

// NewHandler creates the acquisition pipeline handler. defaultQuality is
// used when the artifact name carries no quality marker.
func NewHandler(store *library.Store, w *writer.Writer, resolver *debrid.Resolver, defaultQuality string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		store:          store,
		writer:         w,
		resolver:       resolver,
		defaultQuality: defaultQuality,
		log:            log.With("component", "acquisition"),
	}
}

// Run consumes acquisition events until the context is canceled. One bad
// artifact never stops the pipeline. The caller subscribes ch before any
// publisher starts; events published with no subscriber are dropped.
func (h *Handler) Run(ctx context.Context, ch <-chan events.Event) error {
	h.log.Info("acquisition handler started")

	for {
		select {
		case <-ctx.Done():
			h.log.Info("acquisition handler stopped")
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			acq, isAcq := e.(events.AcquisitionDetected)
			if !isAcq {
				continue
			}
			if err := h.handle(ctx, acq); err != nil {
				h.log.Error("acquisition failed", "artifact", acq.Artifact, "error", err)
			}
		}
	}
}

func (h *Handler) handle(ctx context.Context, e events.AcquisitionDetected) error {
	item, err := h.findOrCreateItem(e)
	if err != nil {
		return fmt.Errorf("resolve item: %w", err)
	}

	quality := string(e.Parsed.Quality)
	if e.Parsed.Quality == release.QualityUnknown {
		quality = h.defaultQuality
	}

	switch {
	case e.Parsed.Kind == release.KindMovie:
		return h.handleSingle(ctx, item, nil, quality, e.Magnet)

	case e.Parsed.Episode > 0:
		ep, err := h.findOrCreateEpisode(item, e.Parsed.Season, e.Parsed.Episode)
		if err != nil {
			return fmt.Errorf("resolve episode: %w", err)
		}
		return h.handleSingle(ctx, item, ep, quality, e.Magnet)

	default:
		// Season pack: enumerate the torrent's files to learn which
		// episodes it carries.
		return h.handleSeasonPack(ctx, item, e.Parsed.Season, quality, e.Magnet)
	}
}

// findOrCreateItem locates the library item for an acquisition: exact
// content id first, then a fuzzy title match against same-kind items, and
// a fresh item when neither lands.
func (h *Handler) findOrCreateItem(e events.AcquisitionDetected) (*library.Item, error) {
	item, err := h.store.GetItemByContentID(e.ContentID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, library.ErrNotFound) {
		return nil, err
	}

	kind := library.KindMovie
	if e.Parsed.Kind == release.KindShow {
		kind = library.KindShow
	}

	items, err := h.store.ListItems(kind)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	match := release.MatchTitle(e.Parsed.Title, titles)
	if match.Confidence >= release.ConfidenceHigh {
		for _, it := range items {
			if it.Title != match.Title {
				continue
			}
			if e.Parsed.Year != 0 && it.Year != 0 && it.Year != e.Parsed.Year {
				break
			}
			h.log.Debug("matched existing item", "title", it.Title, "score", match.Score)
			return it, nil
		}
	}

	item = &library.Item{
		Kind:      kind,
		ContentID: e.ContentID,
		Title:     e.Parsed.Title,
		Year:      e.Parsed.Year,
	}
	if err := h.store.AddItem(item); err != nil {
		// A concurrent acquisition of the same title can win the race.
		if errors.Is(err, library.ErrDuplicate) {
			return h.store.GetItemByContentID(e.ContentID)
		}
		return nil, err
	}
	h.log.Info("item added", "title", item.Title, "year", item.Year, "kind", item.Kind)
	return item, nil
}

func (h *Handler) findOrCreateEpisode(item *library.Item, season, episode int) (*library.Episode, error) {
	ep, err := h.store.GetEpisodeByNumber(item.ID, season, episode)
	if err == nil {
		return ep, nil
	}
	if !errors.Is(err, library.ErrNotFound) {
		return nil, err
	}
	ep = &library.Episode{ItemID: item.ID, Season: season, Episode: episode}
	if err := h.store.AddEpisode(ep); err != nil {
		if errors.Is(err, library.ErrDuplicate) {
			return h.store.GetEpisodeByNumber(item.ID, season, episode)
		}
		return nil, err
	}
	return ep, nil
}

// handleSingle creates one pointer and attempts resolution right away.
// Resolution failure is not fatal: the pointer stays unresolved and the
// playback path or the refresh pass will try again.
func (h *Handler) handleSingle(ctx context.Context, item *library.Item, ep *library.Episode, quality, magnet string) error {
	p, err := h.writer.CreatePointer(ctx, item, ep, quality, magnet)
	if err != nil {
		return fmt.Errorf("create pointer: %w", err)
	}
	h.resolve(ctx, p)
	return nil
}

// handleSeasonPack inspects the torrent, derives the episode set from its
// file names, and syncs episodes and pointers for the lot.
func (h *Handler) handleSeasonPack(ctx context.Context, item *library.Item, season int, quality, magnet string) error {
	inspectCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	files, err := h.resolver.Inspect(inspectCtx, magnet)
	if err != nil {
		return fmt.Errorf("inspect season pack: %w", err)
	}

	var refs []writer.EpisodeRef
	for _, f := range files {
		parsed := release.Parse(f.Path)
		if parsed.Episode == 0 {
			continue
		}
		s := parsed.Season
		if s == 0 {
			s = season
		}
		refs = append(refs, writer.EpisodeRef{Season: s, Episode: parsed.Episode})
	}
	if len(refs) == 0 {
		return fmt.Errorf("no episodes recognized in season pack for %q", item.Title)
	}

	discovered, err := h.writer.SyncEpisodes(ctx, item, refs, quality, magnet)
	if err != nil {
		return err
	}
	h.log.Info("season pack ingested", "title", item.Title, "season", season,
		"files", len(refs), "new_episodes", len(discovered))
	return nil
}

func (h *Handler) resolve(ctx context.Context, p *library.Pointer) {
	resolveCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	if _, err := h.resolver.ResolvePointer(resolveCtx, p); err != nil {
		switch {
		case errors.Is(err, debrid.ErrNotCached):
			h.log.Info("not cached yet, leaving unresolved", "pointer_id", p.ID)
		case errors.Is(err, debrid.ErrAuth):
			h.log.Error("debrid authentication failed, check credentials", "error", err)
		default:
			h.log.Warn("resolve failed", "pointer_id", p.ID, "error", err)
		}
	}
}
