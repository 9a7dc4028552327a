package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/playperu/dominoscore/internal/database"
)

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "domino.db")

	db, err := database.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"memory", ":memory:"},
		{"file", filepath.Join(t.TempDir(), "domino.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := database.Open(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("opening database: %v", err)
			}
			defer db.Close()

			// Several queries in a row must all see the pragma.
			for i := 0; i < 3; i++ {
				var on int
				if err := db.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
					t.Fatalf("reading pragma: %v", err)
				}
				if on != 1 {
					t.Errorf("foreign_keys = %d, want 1", on)
				}
			}
			if got := db.Stats().MaxOpenConnections; got != 1 {
				t.Errorf("max open connections = %d, want 1", got)
			}
		})
	}
}
