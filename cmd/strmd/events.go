package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/strmd/internal/config"
	"github.com/vmunix/strmd/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events from the journal",
	Long: `Show recent events from the daemon's event journal.

Examples:
  strmd events
  strmd events --since 1h
  strmd events --entity pointer/3 --json`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().Duration("since", 24*time.Hour, "How far back to look")
	eventsCmd.Flags().String("entity", "", "Filter by entity, e.g. pointer/3")
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}

func runEvents(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetDuration("since")
	entity, _ := cmd.Flags().GetString("entity")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	log := events.NewEventLog(db)

	var recent []events.RawEvent
	if entity != "" {
		entityType, entityID, err := splitEntity(entity)
		if err != nil {
			return err
		}
		recent, err = log.ForEntity(entityType, entityID)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
	} else {
		recent, err = log.Since(time.Now().Add(-since))
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recent)
	}

	if len(recent) == 0 {
		fmt.Println("No events")
		return nil
	}

	fmt.Printf("  %-20s %-24s %-15s\n", "TIME", "TYPE", "ENTITY")
	fmt.Println("  " + strings.Repeat("-", 62))
	for _, e := range recent {
		fmt.Printf("  %-20s %-24s %s/%d\n",
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			e.EventType, e.EntityType, e.EntityID)
	}
	return nil
}

// splitEntity parses a type/id pair like "pointer/3".
func splitEntity(s string) (string, int64, error) {
	entityType, idStr, ok := strings.Cut(s, "/")
	if !ok || entityType == "" {
		return "", 0, fmt.Errorf("entity must be type/id, got %q", s)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("entity id in %q: %w", s, err)
	}
	return entityType, id, nil
}
