package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-links/internal/infrastructure/database"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name        string
		path        func(dir string) string
		wal         bool
		wantJournal string
		wantErr     bool
	}{
		{
			name:        "wal mode",
			path:        func(dir string) string { return filepath.Join(dir, "links.db") },
			wal:         true,
			wantJournal: "wal",
		},
		{
			name:        "rollback journal",
			path:        func(dir string) string { return filepath.Join(dir, "links.db") },
			wantJournal: "delete",
		},
		{
			name:        "creates nested directory",
			path:        func(dir string) string { return filepath.Join(dir, "data", "state", "links.db") },
			wal:         true,
			wantJournal: "wal",
		},
		{
			name:    "empty path",
			path:    func(string) string { return "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := tt.path(t.TempDir())

			db, err := database.Open(ctx, database.Config{Path: path, WALMode: tt.wal, BusyTimeout: 2})
			if tt.wantErr {
				if err == nil {
					db.Close() //nolint:errcheck // Test cleanup
					t.Fatal("Open() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer db.Close() //nolint:errcheck // Test cleanup

			if db.Path() != path {
				t.Errorf("Path() = %q, want %q", db.Path(), path)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("database file not created: %v", err)
			}

			var journal string
			if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal); err != nil {
				t.Fatalf("journal_mode error = %v", err)
			}
			if journal != tt.wantJournal {
				t.Errorf("journal_mode = %q, want %q", journal, tt.wantJournal)
			}

			var busy int
			if err := db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
				t.Fatalf("busy_timeout error = %v", err)
			}
			if busy != 2000 {
				t.Errorf("busy_timeout = %d ms, want 2000", busy)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	db.Close() //nolint:errcheck // Closed deliberately
	if err := db.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() on closed database error = nil")
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	var zero database.DB
	if err := zero.Close(); err != nil {
		t.Errorf("Close() on zero DB error = %v", err)
	}
}

func TestStats_SingleWriter(t *testing.T) {
	db := openTestDB(t)

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}
