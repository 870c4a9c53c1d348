package addon

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vmunix/strmd/pkg/release"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addonServer(t *testing.T, streams []map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"streams": streams}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestQueryFanOut(t *testing.T) {
	first := addonServer(t, []map[string]any{
		{"url": "https://cdn.example/a-1080p.mkv", "name": "1080p"},
	})
	second := addonServer(t, []map[string]any{
		{"url": "https://cdn.example/b-720p.mkv", "name": "720p"},
	})

	q := NewQuerier([]*Client{
		NewClient("first", first.URL, time.Second, 0, testLogger()),
		NewClient("second", second.URL, time.Second, 1, testLogger()),
	}, testLogger())

	cands := q.Query(context.Background(), Request{
		ContentID: "tt0133093",
		Kind:      release.KindMovie,
		Quality:   release.Quality1080p,
	})

	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].URL != "https://cdn.example/a-1080p.mkv" {
		t.Errorf("expected exact quality match first, got %s", cands[0].URL)
	}
}

func TestQueryFailingAddonContributesNothing(t *testing.T) {
	healthy := addonServer(t, []map[string]any{
		{"url": "https://cdn.example/a-1080p.mkv", "name": "1080p"},
	})
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	q := NewQuerier([]*Client{
		NewClient("broken", broken.URL, time.Second, 0, testLogger()),
		NewClient("healthy", healthy.URL, time.Second, 1, testLogger()),
	}, testLogger())

	cands := q.Query(context.Background(), Request{
		ContentID: "tt0133093",
		Kind:      release.KindMovie,
		Quality:   release.Quality1080p,
	})

	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate from healthy addon, got %d", len(cands))
	}
}

func TestQuerySlowAddonBoundedByTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(slow.Close)
	fast := addonServer(t, []map[string]any{
		{"url": "https://cdn.example/a-1080p.mkv", "name": "1080p"},
	})

	q := NewQuerier([]*Client{
		NewClient("slow", slow.URL, 50*time.Millisecond, 0, testLogger()),
		NewClient("fast", fast.URL, time.Second, 1, testLogger()),
	}, testLogger())

	start := time.Now()
	cands := q.Query(context.Background(), Request{
		ContentID: "tt0133093",
		Kind:      release.KindMovie,
		Quality:   release.Quality1080p,
	})

	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("query took %v, slow addon not bounded by its timeout", elapsed)
	}
}

func TestQueryDedupesByURL(t *testing.T) {
	streams := []map[string]any{
		{"url": "https://cdn.example/same.mkv", "name": "1080p"},
	}
	first := addonServer(t, streams)
	second := addonServer(t, streams)

	q := NewQuerier([]*Client{
		NewClient("first", first.URL, time.Second, 0, testLogger()),
		NewClient("second", second.URL, time.Second, 1, testLogger()),
	}, testLogger())

	cands := q.Query(context.Background(), Request{
		ContentID: "tt0133093",
		Kind:      release.KindMovie,
		Quality:   release.Quality1080p,
	})

	if len(cands) != 1 {
		t.Fatalf("expected deduped single candidate, got %d", len(cands))
	}
}

func TestQueryCachedLinkLeads(t *testing.T) {
	server := addonServer(t, []map[string]any{
		{"url": "https://cdn.example/fresh-1080p.mkv", "name": "1080p"},
	})

	q := NewQuerier([]*Client{
		NewClient("addon", server.URL, time.Second, 0, testLogger()),
	}, testLogger())

	cands := q.Query(context.Background(), Request{
		ContentID:     "tt0133093",
		Kind:          release.KindMovie,
		Quality:       release.Quality1080p,
		CachedLink:    "https://stream.example/cached.mkv",
		CachedQuality: release.Quality1080p,
	})

	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].URL != "https://stream.example/cached.mkv" {
		t.Errorf("expected cached link first, got %s", cands[0].URL)
	}
	if cands[0].Source != "cache" {
		t.Errorf("expected cache source, got %s", cands[0].Source)
	}
}

func TestQueryEmptyIsNotError(t *testing.T) {
	server := addonServer(t, nil)

	q := NewQuerier([]*Client{
		NewClient("addon", server.URL, time.Second, 0, testLogger()),
	}, testLogger())

	cands := q.Query(context.Background(), Request{
		ContentID: "tt9999999",
		Kind:      release.KindMovie,
		Quality:   release.Quality1080p,
	})

	if len(cands) != 0 {
		t.Fatalf("expected empty result, got %d", len(cands))
	}
}
