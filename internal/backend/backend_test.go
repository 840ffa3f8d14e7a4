package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/claude/calilog/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOpenSQLite verifies the sqlite driver opens and serves queries.
func TestOpenSQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "calilog.db")}

	if err := Migrate(cfg, "does-not-exist"); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	s, err := Open(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	stats, err := s.GetDataStats(context.Background())
	if err != nil {
		t.Fatalf("GetDataStats: %v", err)
	}
	if stats.Exercises != 0 {
		t.Errorf("exercises = %d, want 0", stats.Exercises)
	}
}

// TestOpenUnknownDriver verifies unsupported drivers are rejected.
func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}, testLogger()); err == nil {
		t.Fatal("expected error")
	}
}
