package debrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vmunix/strmd/internal/events"
	"github.com/vmunix/strmd/internal/library"
)

// ResolvedLink is the outcome of a successful resolution: a direct stream
// URL and the moment it was obtained.
type ResolvedLink struct {
	URL        string
	Filename   string
	Filesize   int64
	ResolvedAt time.Time
}

// linkStore is the slice of the library store the resolver mutates.
type linkStore interface {
	SwapLink(id int64, link string, resolvedAt time.Time) error
}

// maxBackoff caps the exponential poll backoff.
const maxBackoff = time.Minute

// Resolver exchanges acquisition references for direct stream URLs. It owns
// all outbound calls to the debrid service and their retry policy.
type Resolver struct {
	svc          Service
	store        linkStore
	bus          *events.Bus // optional
	pollInterval time.Duration
	maxAttempts  int
	log          *slog.Logger

	// group collapses concurrent resolutions of the same pointer (refresh
	// racing playback) into one service round trip.
	group singleflight.Group
}

// NewResolver creates a resolver. bus may be nil.
func NewResolver(svc Service, store linkStore, bus *events.Bus, pollInterval time.Duration, maxAttempts int, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	return &Resolver{
		svc:          svc,
		store:        store,
		bus:          bus,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		log:          log.With("component", "resolver"),
	}
}

// Resolve submits a magnet reference and polls until the service reports
// the content cached, with exponential backoff up to the attempt bound.
func (r *Resolver) Resolve(ctx context.Context, magnet string) (*ResolvedLink, error) {
	torrentID, err := r.svc.AddMagnet(ctx, magnet)
	if err != nil {
		return nil, fmt.Errorf("add magnet: %w", err)
	}

	info, err := r.awaitCached(ctx, torrentID)
	if err != nil {
		return nil, err
	}

	link, err := r.bestLink(ctx, info)
	if err != nil {
		return nil, err
	}

	r.log.Info("resolved", "torrent_id", torrentID, "file", link.Filename)
	return link, nil
}

// awaitCached polls torrent state until it is downloaded, selecting video
// files along the way. Attempts are bounded; pending states past the bound
// surface as ErrNotCached.
func (r *Resolver) awaitCached(ctx context.Context, torrentID string) (*TorrentInfo, error) {
	selected := false
	backoff := r.pollInterval

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		info, err := r.svc.TorrentInfo(ctx, torrentID)
		switch {
		case errors.Is(err, ErrAuth):
			return nil, err
		case errors.Is(err, ErrTransient):
			r.log.Warn("torrent info failed, retrying", "torrent_id", torrentID, "attempt", attempt, "error", err)
		case err != nil:
			return nil, fmt.Errorf("torrent info: %w", err)
		default:
			if deadStatuses[info.Status] {
				_ = r.svc.Delete(ctx, torrentID)
				return nil, fmt.Errorf("%w: torrent status %q", ErrNotCached, info.Status)
			}
			if info.Status == StatusDownloaded {
				return info, nil
			}
			if !selected && len(info.Files) > 0 {
				videos := filterVideoFiles(info.Files)
				if len(videos) == 0 {
					_ = r.svc.Delete(ctx, torrentID)
					return nil, ErrNoVideoFiles
				}
				ids := make([]int64, len(videos))
				for i, f := range videos {
					ids[i] = f.ID
				}
				if err := r.svc.SelectFiles(ctx, torrentID, ids); err != nil {
					return nil, fmt.Errorf("select files: %w", err)
				}
				selected = true
			}
			if !Pending(info.Status) {
				r.log.Warn("unrecognized torrent status", "torrent_id", torrentID, "status", info.Status)
			}
			r.log.Debug("not cached yet", "torrent_id", torrentID, "status", info.Status, "progress", info.Progress)
		}

		if attempt == r.maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return nil, fmt.Errorf("%w: still pending after %d attempts", ErrNotCached, r.maxAttempts)
}

// bestLink unrestricts the torrent's links and returns the largest file.
// Multi-file torrents carry extras; the biggest file is the feature.
func (r *Resolver) bestLink(ctx context.Context, info *TorrentInfo) (*ResolvedLink, error) {
	if len(info.Links) == 0 {
		return nil, fmt.Errorf("%w: downloaded but no links", ErrNotCached)
	}

	var (
		best    *ResolvedLink
		lastErr error
	)
	for _, l := range info.Links {
		un, err := r.svc.Unrestrict(ctx, l)
		if err != nil {
			if errors.Is(err, ErrAuth) {
				return nil, err
			}
			r.log.Warn("unrestrict failed", "error", err)
			lastErr = err
			continue
		}
		if best == nil || un.Filesize > best.Filesize {
			best = &ResolvedLink{
				URL:        un.URL,
				Filename:   un.Filename,
				Filesize:   un.Filesize,
				ResolvedAt: time.Now(),
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("unrestrict links: %w", lastErr)
	}
	return best, nil
}

// Inspect submits a magnet and returns its playable video files without
// waiting for the content to be cached; file listings appear as soon as
// the service has converted the magnet. The torrent is left in place so a
// later Resolve of the same reference finds it warm.
func (r *Resolver) Inspect(ctx context.Context, magnet string) ([]TorrentFile, error) {
	torrentID, err := r.svc.AddMagnet(ctx, magnet)
	if err != nil {
		return nil, fmt.Errorf("add magnet: %w", err)
	}

	backoff := r.pollInterval
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		info, err := r.svc.TorrentInfo(ctx, torrentID)
		switch {
		case errors.Is(err, ErrAuth):
			return nil, err
		case errors.Is(err, ErrTransient):
			r.log.Warn("torrent info failed, retrying", "torrent_id", torrentID, "attempt", attempt, "error", err)
		case err != nil:
			return nil, fmt.Errorf("torrent info: %w", err)
		default:
			if deadStatuses[info.Status] {
				_ = r.svc.Delete(ctx, torrentID)
				return nil, fmt.Errorf("%w: torrent status %q", ErrNotCached, info.Status)
			}
			if len(info.Files) > 0 {
				videos := filterVideoFiles(info.Files)
				if len(videos) == 0 {
					_ = r.svc.Delete(ctx, torrentID)
					return nil, ErrNoVideoFiles
				}
				return videos, nil
			}
		}

		if attempt == r.maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return nil, fmt.Errorf("%w: no file listing after %d attempts", ErrNotCached, r.maxAttempts)
}

// ResolvePointer resolves the pointer's source reference and swaps the
// cached link in. Concurrent calls for the same pointer share one
// resolution; the swap is the atomic visibility boundary for readers.
func (r *Resolver) ResolvePointer(ctx context.Context, p *library.Pointer) (*ResolvedLink, error) {
	v, err, _ := r.group.Do(strconv.FormatInt(p.ID, 10), func() (any, error) {
		link, err := r.Resolve(ctx, p.SourceRef)
		if err != nil {
			return nil, err
		}
		if err := r.store.SwapLink(p.ID, link.URL, link.ResolvedAt); err != nil {
			return nil, fmt.Errorf("swap link: %w", err)
		}
		if r.bus != nil {
			_ = r.bus.Publish(ctx, events.NewLinkRefreshed(p.ID, link.ResolvedAt))
		}
		return link, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ResolvedLink), nil
}
