// Package refresh re-resolves cached links before they expire so playback
// never starts on a dead URL.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vmunix/strmd/internal/debrid"
	"github.com/vmunix/strmd/internal/events"
	"github.com/vmunix/strmd/internal/library"
)

// Resolver re-resolves one pointer's source reference and swaps the link
// in on success. *debrid.Resolver implements it.
type Resolver interface {
	ResolvePointer(ctx context.Context, p *library.Pointer) (*debrid.ResolvedLink, error)
}

// pointerStore is the slice of the library store the scheduler reads and
// downgrades.
type pointerStore interface {
	PointersDue(now time.Time, horizon, margin time.Duration) ([]*library.Pointer, error)
	MarkStale(id int64) (library.LinkStatus, error)
}

// Scheduler runs the cron-driven refresh pass.
type Scheduler struct {
	store    pointerStore
	resolver Resolver
	bus      *events.Bus // optional
	schedule string
	horizon  time.Duration
	margin   time.Duration
	log      *slog.Logger
}

// New creates a refresh scheduler.
func New(store pointerStore, resolver Resolver, bus *events.Bus, schedule string, horizon, margin time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:    store,
		resolver: resolver,
		bus:      bus,
		schedule: schedule,
		horizon:  horizon,
		margin:   margin,
		log:      log.With("component", "refresh"),
	}
}

// Run installs the cron schedule and blocks until the context is
// canceled. An in-flight pass finishes before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Pass(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.log.Info("refresh scheduler started", "schedule", s.schedule,
		"horizon", s.horizon, "margin", s.margin)

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("refresh scheduler stopped")
	return nil
}

// Pass refreshes every pointer approaching its validity horizon, plus any
// already marked stale. Per-pointer failures are recorded and the pass
// moves on; a second consecutive failure is a downgrade to invalid.
func (s *Scheduler) Pass(ctx context.Context) {
	start := time.Now()
	due, err := s.store.PointersDue(start, s.horizon, s.margin)
	if err != nil {
		s.log.Error("list due pointers", "error", err)
		return
	}
	if len(due) == 0 {
		s.log.Debug("nothing due for refresh")
		return
	}

	s.log.Info("refresh pass started", "due", len(due))
	refreshed, failed := 0, 0
	for _, p := range due {
		if ctx.Err() != nil {
			return
		}
		if err := s.refreshOne(ctx, p); err != nil {
			failed++
			continue
		}
		refreshed++
	}
	s.log.Info("refresh pass finished", "refreshed", refreshed, "failed", failed,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) refreshOne(ctx context.Context, p *library.Pointer) error {
	if _, err := s.resolver.ResolvePointer(ctx, p); err != nil {
		s.log.Warn("refresh failed", "pointer_id", p.ID, "path", p.Path, "error", err)
		status, markErr := s.store.MarkStale(p.ID)
		if markErr != nil {
			s.log.Error("mark stale", "pointer_id", p.ID, "error", markErr)
			return err
		}
		if status == library.StatusInvalid && s.bus != nil {
			_ = s.bus.Publish(ctx, events.NewLinkInvalid(p.ID, err.Error()))
		}
		return err
	}
	s.log.Debug("link refreshed", "pointer_id", p.ID, "path", p.Path)
	return nil
}
