package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/model"
)

func newStoreMock(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func observationRows() *pgxmock.Rows {
	now := time.Now()
	advID := int64(7)
	name := "acme plumbing co"
	ref := "img-123"
	return pgxmock.NewRows([]string{
		"id", "advertiser_id", "channel", "creative_hash", "advertiser_name", "ad_text",
		"landing_url", "ad_type", "creative_ref", "first_seen", "last_seen", "seen_count", "created_at",
	}).AddRow(
		int64(42), &advID, "search", "abc123", &name, "Fast repairs",
		"https://acme.example.com", "text", &ref, now.Add(-72*time.Hour), now, 3, now,
	)
}

func TestGetObservationByHash(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery(`SELECT .+ FROM observations\s+WHERE channel = \$1 AND creative_hash = \$2`).
		WithArgs("search", "abc123").
		WillReturnRows(observationRows())

	obs, err := store.GetObservationByHash(context.Background(), model.ChannelSearch, "abc123")
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, int64(42), obs.ID)
	assert.Equal(t, model.ChannelSearch, obs.Channel)
	assert.Equal(t, 3, obs.SeenCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetObservationByHash_NotFound(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery(`SELECT .+ FROM observations`).
		WithArgs("display", "nope").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	obs, err := store.GetObservationByHash(context.Background(), model.ChannelDisplay, "nope")
	require.NoError(t, err)
	assert.Nil(t, obs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchObservation(t *testing.T) {
	store, mock := newStoreMock(t)
	seenAt := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE observations\s+SET seen_count = seen_count \+ 1`).
		WithArgs(int64(42), seenAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.TouchObservation(context.Background(), 42, seenAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewSighting_RequiresQuarantine(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectExec(`UPDATE raw_sightings SET status = \$2`).
		WithArgs(int64(9), "approved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.ReviewSighting(context.Background(), 9, model.SightingApproved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in quarantine")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdvertiser(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO advertisers`).
		WithArgs("acme plumbing co", "", "", "", "", false).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(501), now))

	adv := &model.Advertiser{Name: "acme plumbing co"}
	require.NoError(t, store.CreateAdvertiser(context.Background(), adv))
	assert.Equal(t, int64(501), adv.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnpromoted(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Now()
	name := "Acme Plumbing Co"
	pos := 1
	ref := "img-123"

	mock.ExpectQuery(`SELECT .+ FROM raw_sightings\s+WHERE status = 'approved' AND promoted_at IS NULL`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "batch_id", "channel", "advertiser_name", "ad_text", "description", "position",
			"landing_url", "display_url", "ad_type", "placement", "creative_ref", "extra", "captured_at",
			"status", "status_reason", "wash_score", "created_at",
		}).AddRow(
			int64(1), "batch-1", "search", &name, "Fast repairs", "Call today", &pos,
			"https://acme.example.com", "acme.example.com", "text", "top", &ref,
			[]byte(`{"slot":"north"}`), now, "approved", "", floatPtr(1.0), now,
		))

	sightings, err := store.ListUnpromoted(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, sightings, 1)
	assert.Equal(t, model.ChannelSearch, sightings[0].Channel)
	assert.Equal(t, "north", sightings[0].Extra["slot"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func floatPtr(f float64) *float64 { return &f }
