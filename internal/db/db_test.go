package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFilename(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "JSON1700000000123", SnapshotFilename(ts))
}

func TestSnapshot_JSONMarshaling(t *testing.T) {
	snapshot := Snapshot{
		ID:       uuid.New(),
		Filename: "JSON1",
		File:     []byte(`{"success":true}`),
	}

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"filename":"JSON1"`)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snapshot.ID, decoded.ID)
	assert.Equal(t, snapshot.File, decoded.File)
}
