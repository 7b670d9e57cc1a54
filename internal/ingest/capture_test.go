package ingest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/model"
)

func writeCaptureFile(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.db")

	dbh, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer dbh.Close() //nolint:errcheck

	_, err = dbh.Exec(`CREATE TABLE sightings (
		channel TEXT, advertiser_name TEXT, ad_text TEXT, description TEXT,
		position INTEGER, landing_url TEXT, display_url TEXT, ad_type TEXT,
		placement TEXT, creative_ref TEXT, extra TEXT, captured_at TEXT
	)`)
	require.NoError(t, err)

	for _, row := range rows {
		_, err = dbh.Exec(
			`INSERT INTO sightings VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`, row...)
		require.NoError(t, err)
	}
	return path
}

func captureRow(channel, capturedAt string) []any {
	return []any{
		channel, "Acme Plumbing Co", "Fast repairs", "Call today",
		1, "https://acme.example.com/offer", "acme.example.com", "text",
		"top", "img-123", `{"slot":"north"}`, capturedAt,
	}
}

func TestReadCaptureFile(t *testing.T) {
	path := writeCaptureFile(t, [][]any{
		captureRow("search", "2026-08-01T09:30:00Z"),
		captureRow("display", "2026-08-02 10:00:00"),
	})

	sightings, batchID, err := ReadCaptureFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, sightings, 2)
	assert.NotEmpty(t, batchID)

	first := sightings[0]
	assert.Equal(t, batchID, first.BatchID)
	assert.Equal(t, model.ChannelSearch, first.Channel)
	assert.Equal(t, model.SightingPending, first.Status)
	require.NotNil(t, first.AdvertiserName)
	assert.Equal(t, "Acme Plumbing Co", *first.AdvertiserName)
	assert.Equal(t, "north", first.Extra["slot"])
	assert.Equal(t, 9, first.CapturedAt.Hour())

	assert.Equal(t, model.ChannelDisplay, sightings[1].Channel)
	assert.Equal(t, batchID, sightings[1].BatchID)
}

func TestReadCaptureFile_BadTimestamp(t *testing.T) {
	path := writeCaptureFile(t, [][]any{
		captureRow("search", "yesterday-ish"),
	})

	_, _, err := ReadCaptureFile(context.Background(), path)
	require.Error(t, err)
}

func TestImport_SkipsUnknownChannels(t *testing.T) {
	path := writeCaptureFile(t, [][]any{
		captureRow("search", "2026-08-01"),
		captureRow("podcast", "2026-08-01"),
		captureRow("video", "2026-08-01"),
	})

	store := newMockStore()
	result, err := Import(context.Background(), store, path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Read)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, int64(2), result.Inserted)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, model.ChannelSearch, store.inserted[0].Channel)
	assert.Equal(t, model.ChannelVideo, store.inserted[1].Channel)
}
