package db

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the durable record of one completed refresh. Rows are append-only.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	File      []byte    `json:"file"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotSummary describes a snapshot without its payload.
type SnapshotSummary struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotFilename builds the filename recorded for a snapshot taken at t.
func SnapshotFilename(t time.Time) string {
	return "JSON" + formatMillis(t)
}
