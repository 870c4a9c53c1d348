package addon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/strmd/pkg/release"
)

// Request describes one candidate lookup.
type Request struct {
	ContentID string
	Kind      release.Kind
	Season    int
	Episode   int
	Quality   release.Quality

	// CachedLink, when set, is the pointer's already-resolved link. It
	// is prepended as the top candidate regardless of ranking.
	CachedLink    string
	CachedQuality release.Quality
}

// Querier fans a request out over all configured addons.
type Querier struct {
	clients []*Client
	log     *slog.Logger
}

// NewQuerier creates a querier over the configured addon clients.
func NewQuerier(clients []*Client, log *slog.Logger) *Querier {
	if log == nil {
		log = slog.Default()
	}
	return &Querier{clients: clients, log: log.With("component", "addon")}
}

// Query asks every addon concurrently and returns a ranked, deduplicated
// candidate list. A failing or slow addon contributes nothing; an empty
// result is not an error.
func (q *Querier) Query(ctx context.Context, req Request) []Candidate {
	start := time.Now()

	type result struct {
		candidates []Candidate
		err        error
	}

	results := make(chan result, len(q.clients))
	var wg sync.WaitGroup

	for _, client := range q.clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			var (
				cands []Candidate
				err   error
			)
			if req.Kind == release.KindShow {
				cands, err = c.EpisodeStreams(ctx, req.ContentID, req.Season, req.Episode)
			} else {
				cands, err = c.Streams(ctx, req.ContentID)
			}
			if err != nil {
				q.log.Warn("addon query failed", "addon", c.Name(), "content_id", req.ContentID, "error", err)
			}
			results <- result{candidates: cands, err: err}
		}(client)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	var all []Candidate
	for r := range results {
		if r.err != nil {
			continue
		}
		for _, c := range r.candidates {
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			all = append(all, c)
		}
	}

	Rank(all, req.Quality)

	// The cached link is the proven candidate; it always leads, even
	// when an addon happens to return the same URL.
	if req.CachedLink != "" {
		filtered := all[:0]
		for _, c := range all {
			if c.URL != req.CachedLink {
				filtered = append(filtered, c)
			}
		}
		cached := Candidate{
			URL:        req.CachedLink,
			Quality:    req.CachedQuality,
			Source:     "cache",
			SourceRank: -1,
		}
		all = append([]Candidate{cached}, filtered...)
	}

	q.log.Debug("query finished", "content_id", req.ContentID,
		"candidates", len(all), "duration_ms", time.Since(start).Milliseconds())
	return all
}
