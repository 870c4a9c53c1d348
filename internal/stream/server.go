package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vmunix/strmd/internal/addon"
	"github.com/vmunix/strmd/internal/events"
	"github.com/vmunix/strmd/internal/library"
	"github.com/vmunix/strmd/pkg/release"
)

// PointerStore is the slice of the library store the redirect server
// needs: pointer lookup plus the status downgrade on exhaustion.
type PointerStore interface {
	GetPointer(id int64) (*library.Pointer, error)
	GetEpisode(id int64) (*library.Episode, error)
	MarkStale(id int64) (library.LinkStatus, error)
}

// Server handles the runtime-critical playback path.
type Server struct {
	store          PointerStore
	querier        *addon.Querier
	manager        *Manager
	bus            *events.Bus // optional
	defaultQuality string
	log            *slog.Logger
}

// NewServer creates the redirect server.
func NewServer(store PointerStore, querier *addon.Querier, manager *Manager, bus *events.Bus, defaultQuality string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:          store,
		querier:        querier,
		manager:        manager,
		bus:            bus,
		defaultQuality: defaultQuality,
		log:            log.With("component", "stream"),
	}
}

// RegisterRoutes registers the playback routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /stream/{id}", s.handleStream)
	mux.HandleFunc("POST /stream/{id}/fail", s.handleFail)
	mux.HandleFunc("GET /health", s.handleHealth)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func pathID(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, fmt.Errorf("missing pointer id")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// handleStream is the playback entry point: 302 to the selected
// candidate, 404 for unknown pointers, 502 when no candidate can serve.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if sess, ok := s.manager.Get(id); ok {
		// An exhausted session is dead weight; drop it and rebuild the
		// candidate list, which picks up any link the refresh pass has
		// re-resolved since.
		if sess.State() == StateExhausted {
			s.manager.Remove(id)
		} else {
			s.redirect(w, r, sess)
			return
		}
	}

	p, err := s.store.GetPointer(id)
	if errors.Is(err, library.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown pointer")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	quality := r.URL.Query().Get("quality")
	if quality == "" {
		quality = p.Quality
	}
	if quality == "" {
		quality = s.defaultQuality
	}

	candidates := s.buildCandidates(r.Context(), p, quality)
	if len(candidates) == 0 {
		s.log.Warn("no candidates", "pointer_id", id, "quality", quality)
		writeError(w, http.StatusBadGateway, "NO_CANDIDATES", ErrNoCandidates.Error())
		return
	}

	sess := s.manager.Create(id, candidates, s.exhausted)
	s.redirect(w, r, sess)
}

// buildCandidates assembles the session's candidate list. A valid cached
// link of the right quality short-circuits the addon query entirely.
func (s *Server) buildCandidates(ctx context.Context, p *library.Pointer, quality string) []addon.Candidate {
	if p.Status == library.StatusValid && p.Link != nil && p.Quality == quality {
		return []addon.Candidate{{
			URL:        *p.Link,
			Quality:    release.ParseQuality(p.Quality),
			Source:     "cache",
			SourceRank: -1,
		}}
	}

	req := addon.Request{
		ContentID: p.ContentID,
		Kind:      release.KindMovie,
		Quality:   release.ParseQuality(quality),
	}
	if p.EpisodeID != nil {
		ep, err := s.store.GetEpisode(*p.EpisodeID)
		if err != nil {
			s.log.Error("load episode", "pointer_id", p.ID, "error", err)
			return nil
		}
		req.Kind = release.KindShow
		req.Season = ep.Season
		req.Episode = ep.Episode
	}
	// A stale link may still play; let it compete from the front.
	if p.Link != nil && p.Status != library.StatusInvalid {
		req.CachedLink = *p.Link
		req.CachedQuality = release.ParseQuality(p.Quality)
	}
	return s.querier.Query(ctx, req)
}

// redirect runs one request through the session and writes the response.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, sess *Session) {
	c, err := sess.Redirect()
	if err != nil {
		writeError(w, http.StatusBadGateway, "EXHAUSTED", err.Error())
		return
	}
	http.Redirect(w, r, c.URL, http.StatusFound)
}

// handleFail is the explicit playback failure signal.
func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	sess, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NO_SESSION", "no active session for pointer")
		return
	}

	if _, ok := sess.Fail(); !ok {
		writeError(w, http.StatusBadGateway, "EXHAUSTED", ErrExhausted.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// exhausted downgrades the pointer when a session burns through every
// candidate. Runs outside the session lock.
func (s *Server) exhausted(sess *Session) {
	status, err := s.store.MarkStale(sess.PointerID)
	if err != nil {
		s.log.Error("mark pointer stale", "pointer_id", sess.PointerID, "error", err)
	} else {
		s.log.Warn("pointer downgraded after exhaustion", "pointer_id", sess.PointerID, "status", status)
	}
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(),
			events.NewSessionExhausted(sess.PointerID, sess.ID, sess.CandidateCount()))
	}
}
