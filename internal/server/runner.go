// Package server assembles the event-driven components and runs them as
// one unit: intake watcher, acquisition pipeline, link refresh scheduler,
// playback session manager, and the HTTP redirect server.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/strmd/internal/addon"
	"github.com/vmunix/strmd/internal/config"
	"github.com/vmunix/strmd/internal/debrid"
	"github.com/vmunix/strmd/internal/events"
	"github.com/vmunix/strmd/internal/ingest"
	"github.com/vmunix/strmd/internal/library"
	"github.com/vmunix/strmd/internal/refresh"
	"github.com/vmunix/strmd/internal/stream"
	"github.com/vmunix/strmd/internal/writer"
)

const shutdownTimeout = 30 * time.Second

// Runner owns the component lifecycle.
type Runner struct {
	db  *sql.DB
	cfg *config.Config
	log *slog.Logger
}

// NewRunner creates a runner over an open, migrated database.
func NewRunner(db *sql.DB, cfg *config.Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{db: db, cfg: cfg, log: log}
}

// Run starts every component and blocks until the context is canceled or
// a component fails.
func (r *Runner) Run(ctx context.Context) error {
	eventLog := events.NewEventLog(r.db)
	bus := events.NewBus(eventLog, r.log.With("component", "bus"))
	defer bus.Close()

	store := library.NewStore(r.db)

	debridClient := debrid.NewClient(
		r.cfg.Debrid.URL,
		r.cfg.Debrid.APIKey,
		r.cfg.Debrid.RequestTimeout,
		r.log.With("component", "debrid"),
	)
	resolver := debrid.NewResolver(
		debridClient, store, bus,
		r.cfg.Debrid.PollInterval,
		r.cfg.Debrid.MaxAttempts,
		r.log.With("component", "resolver"),
	)

	var mediaServer writer.MediaServer
	if ms := r.cfg.MediaServer; ms != nil {
		switch ms.Kind {
		case "plex":
			mediaServer = writer.NewPlexClient(ms.URL, ms.Token, r.log.With("component", "plex"))
		default:
			mediaServer = writer.NewJellyfinClient(ms.URL, ms.Token, r.log.With("component", "jellyfin"))
		}
	}

	renamer := writer.NewRenamer(writer.DefaultMovieTemplate, writer.DefaultSeriesTemplate)
	w := writer.New(store, renamer, writer.Options{
		MoviesRoot:  r.cfg.Libraries.Movies.Root,
		TVRoot:      r.cfg.Libraries.TV.Root,
		BaseURL:     r.cfg.Stream.BaseURL,
		MediaServer: mediaServer,
	}, bus, r.log.With("component", "writer"))

	addonClients := make([]*addon.Client, 0, len(r.cfg.Addons))
	for i, a := range r.cfg.Addons {
		// Config order is preference order.
		addonClients = append(addonClients,
			addon.NewClient(a.Name, a.URL, a.Timeout, i, r.log.With("component", "addon")))
	}
	querier := addon.NewQuerier(addonClients, r.log.With("component", "querier"))

	handler := NewHandler(store, w, resolver, r.cfg.Stream.DefaultQuality, r.log)
	// Subscribe before the watcher starts; its first intake scan may
	// publish immediately and the bus drops events with no subscriber.
	acquisitions := bus.Subscribe(events.TypeAcquisitionDetected, 64)
	trace := bus.SubscribeAll(256)

	watcher := ingest.NewWatcher(
		r.cfg.Ingest.Path,
		r.cfg.Ingest.ArchiveDir,
		r.cfg.Ingest.QuarantineDir,
		r.cfg.Ingest.PollInterval,
		bus,
		r.log.With("component", "watcher"),
	)

	scheduler := refresh.New(
		store, resolver, bus,
		r.cfg.Refresh.Schedule,
		r.cfg.Refresh.ValidityHorizon,
		r.cfg.Refresh.SafetyMargin,
		r.log.With("component", "refresh"),
	)

	sessions := stream.NewManager(
		r.cfg.Stream.GracePeriod,
		r.cfg.Stream.StabilityWindow,
		r.cfg.Stream.SessionTTL,
		r.cfg.Stream.ResetPreferred(),
		r.log.With("component", "sessions"),
	)
	streamServer := stream.NewServer(
		store, querier, sessions, bus,
		r.cfg.Stream.DefaultQuality,
		r.log.With("component", "stream"),
	)

	mux := http.NewServeMux()
	streamServer.RegisterRoutes(mux)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", r.cfg.Server.Host, r.cfg.Server.Port),
		Handler: logRequests(mux, r.log),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return handler.Run(ctx, acquisitions) })
	g.Go(func() error { return r.traceEvents(ctx, trace) })
	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error { return sessions.Run(ctx) })

	g.Go(func() error {
		r.log.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// traceEvents logs every event crossing the bus at debug level.
func (r *Runner) traceEvents(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			r.log.Debug("event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID(),
			)
		}
	}
}
