package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vmunix/strmd/internal/config"
	"github.com/vmunix/strmd/internal/migrations"
	"github.com/vmunix/strmd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon",
	Long: `Run the daemon: intake watcher, link refresh scheduler, and the
HTTP redirect server, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("starting",
		"version", version,
		"database", cfg.Database.Path,
		"intake", cfg.Ingest.Path,
		"addons", len(cfg.Addons),
		"mediaserver", cfg.MediaServer != nil,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.NewRunner(db, cfg, logger).Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("stopped")
	return nil
}
