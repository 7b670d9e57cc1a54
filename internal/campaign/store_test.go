package campaign

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

func TestDeleteScope_EstimatesBeforeCampaigns(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM spend_estimates WHERE campaign_id IN`).
		WithArgs([]string{"search", "display"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 30))
	mock.ExpectExec(`DELETE FROM campaigns WHERE channel = ANY\(\$1\)`).
		WithArgs([]string{"search", "display"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := store.DeleteScope(context.Background(),
		[]model.Channel{model.ChannelSearch, model.ChannelDisplay}, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteScope_AdvertiserFilter(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM spend_estimates WHERE campaign_id IN`).
		WithArgs([]string{"search"}, []int64{7}).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectExec(`DELETE FROM campaigns WHERE channel = ANY\(\$1\) AND advertiser_id = ANY\(\$2\)`).
		WithArgs([]string{"search"}, []int64{7}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := store.DeleteScope(context.Background(), []model.Channel{model.ChannelSearch}, []int64{7})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCampaign(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO campaigns`).
		WithArgs(int64(7), "search", (*string)(nil), day(1), day(3),
			6, 1, "active", 12345.0, []string{"h1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	camp := &model.Campaign{
		AdvertiserID: 7, Channel: model.ChannelSearch,
		FirstSeen: day(1), LastSeen: day(3),
		AdOccurrences: 6, SnapshotCount: 1,
		Status: model.CampaignActive, TotalEstSpend: 12345.0,
		CreativeIDs: []string{"h1"},
	}
	require.NoError(t, store.InsertCampaign(context.Background(), camp))
	assert.Equal(t, int64(42), camp.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignEstimates(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectExec(`UPDATE spend_estimates SET campaign_id = \$2 WHERE campaign_id = \$1`).
		WithArgs(int64(2), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	require.NoError(t, store.ReassignEstimates(context.Background(), 2, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLabeled(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Now()
	label := "boiler-service"

	mock.ExpectQuery(`SELECT .+ FROM campaigns\s+WHERE product_label IS NOT NULL`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "advertiser_id", "channel", "product_label", "first_seen", "last_seen",
			"ad_occurrences", "snapshot_count", "status", "total_est_spend", "creative_ids", "created_at",
		}).AddRow(
			int64(1), int64(7), "search", &label, day(1), day(5),
			10, 2, "active", 100000.0, []string{"h1", "h2"}, now,
		))

	campaigns, err := store.ListLabeled(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "boiler-service", *campaigns[0].ProductLabel)
	assert.Equal(t, model.CampaignActive, campaigns[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
