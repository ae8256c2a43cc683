//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return db
}

func TestIntegration_Snapshots(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	filename := "JSON-test-" + uuid.New().String()
	defer func() {
		_, _ = db.pool.Exec(ctx, "DELETE FROM snapshots WHERE filename = $1", filename)
	}()

	t.Run("save snapshot", func(t *testing.T) {
		saved, err := db.SaveSnapshot(ctx, filename, []byte(`{"success": true}`))
		if err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
		if saved.ID == uuid.Nil {
			t.Error("Snapshot ID should not be nil")
		}
		if len(saved.File) == 0 {
			t.Error("Snapshot file should be returned")
		}
	})

	t.Run("latest snapshot", func(t *testing.T) {
		latest, err := db.GetLatestSnapshot(ctx)
		if err != nil {
			t.Fatalf("GetLatestSnapshot failed: %v", err)
		}
		if latest == nil || latest.Filename != filename {
			t.Errorf("latest snapshot = %+v, want filename %q", latest, filename)
		}
	})

	t.Run("list snapshots", func(t *testing.T) {
		summaries, err := db.ListSnapshots(ctx, 5, 0)
		if err != nil {
			t.Fatalf("ListSnapshots failed: %v", err)
		}
		if len(summaries) == 0 {
			t.Fatal("expected at least one snapshot")
		}
		if summaries[0].SizeBytes == 0 {
			t.Error("SizeBytes should be set")
		}
	})
}
