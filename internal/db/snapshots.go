package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// SaveSnapshot appends a snapshot and returns the stored row
func (db *DB) SaveSnapshot(ctx context.Context, filename string, file []byte) (*Snapshot, error) {
	var snapshot Snapshot
	err := db.pool.QueryRow(ctx,
		`INSERT INTO snapshots (filename, file)
		 VALUES ($1, $2)
		 RETURNING id, filename, file, created_at`,
		filename, file,
	).Scan(&snapshot.ID, &snapshot.Filename, &snapshot.File, &snapshot.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return &snapshot, nil
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist
func (db *DB) GetLatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	err := db.pool.QueryRow(ctx,
		`SELECT id, filename, file, created_at
		 FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&snapshot.ID, &snapshot.Filename, &snapshot.File, &snapshot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns snapshot summaries, newest first
func (db *DB) ListSnapshots(ctx context.Context, limit, offset int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, filename, octet_length(file::text), created_at
		 FROM snapshots ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []SnapshotSummary
	for rows.Next() {
		var s SnapshotSummary
		if err := rows.Scan(&s.ID, &s.Filename, &s.SizeBytes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return summaries, nil
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
