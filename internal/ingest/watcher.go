package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmunix/strmd/internal/events"
)

// Watcher polls the intake directory and publishes an acquisition event
// per artifact. Moving the artifact out of the intake dir is the
// consumption marker; a restart only re-scans what is still there.
type Watcher struct {
	dir           string
	archiveDir    string
	quarantineDir string
	interval      time.Duration
	bus           *events.Bus
	log           *slog.Logger
}

// NewWatcher creates a watcher over the intake directory.
func NewWatcher(dir, archiveDir, quarantineDir string, interval time.Duration, bus *events.Bus, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		dir:           dir,
		archiveDir:    archiveDir,
		quarantineDir: quarantineDir,
		interval:      interval,
		bus:           bus,
		log:           log.With("component", "ingest"),
	}
}

// Run polls until the context is canceled. The first scan happens
// immediately so artifacts dropped while the daemon was down are picked
// up on start.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range []string{w.dir, w.archiveDir, w.quarantineDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ingest dir: %w", err)
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started", "dir", w.dir, "interval", w.interval)
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// scan processes every artifact currently in the intake dir. One bad
// artifact never blocks the rest.
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Error("read intake dir", "dir", w.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".magnet", ".torrent":
		default:
			continue
		}
		w.processArtifact(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) processArtifact(ctx context.Context, path string) {
	artifact, err := ParseArtifact(path)
	if err != nil {
		w.log.Warn("unparsable artifact, quarantining", "artifact", filepath.Base(path), "error", err)
		w.move(path, w.quarantineDir)
		return
	}

	// Archive before publishing so a crash between the two drops the
	// event rather than replaying the artifact forever.
	if !w.move(path, w.archiveDir) {
		return
	}

	w.log.Info("artifact detected", "artifact", artifact.Name,
		"title", artifact.Parsed.Title, "content_id", artifact.ContentID())
	if err := w.bus.Publish(ctx, events.NewAcquisitionDetected(artifact.Name, artifact.ContentID(), artifact.Magnet, artifact.Parsed)); err != nil {
		w.log.Error("publish acquisition event", "artifact", artifact.Name, "error", err)
	}
}

// move relocates an artifact, adding a numeric suffix when the name is
// already taken. Reports success.
func (w *Watcher) move(path, destDir string) bool {
	dest := uniqueDest(destDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.log.Error("move artifact", "artifact", filepath.Base(path), "dest", destDir, "error", err)
		return false
	}
	return true
}

func uniqueDest(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s.%d%s", stem, i, ext))
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}
