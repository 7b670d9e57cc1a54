package campaign

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/adlens/spend-cli/internal/db"
	"github.com/adlens/spend-cli/internal/model"
)

// Store defines persistence operations for the aggregator.
type Store interface {
	DeleteScope(ctx context.Context, channels []model.Channel, advertiserIDs []int64) error
	ListObservations(ctx context.Context, channels []model.Channel, advertiserIDs []int64) ([]model.Observation, error)
	InHouseAdvertisers(ctx context.Context) (map[int64]bool, error)
	InsertCampaign(ctx context.Context, camp *model.Campaign) error
	InsertEstimates(ctx context.Context, estimates []model.SpendEstimate) (int64, error)

	ListLabeled(ctx context.Context) ([]model.Campaign, error)
	UpdateMergedCampaign(ctx context.Context, camp *model.Campaign) error
	ReassignEstimates(ctx context.Context, fromCampaignID, toCampaignID int64) error
	DeleteCampaign(ctx context.Context, id int64) error
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func channelStrings(channels []model.Channel) []string {
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = string(ch)
	}
	return out
}

// DeleteScope removes every campaign and spend estimate in the rebuild
// scope. Both deletions run in one transaction; reinsertion only ever
// follows a successful delete.
func (s *PostgresStore) DeleteScope(ctx context.Context, channels []model.Channel, advertiserIDs []int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "campaign: begin delete scope")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	chs := channelStrings(channels)

	estSQL := `DELETE FROM spend_estimates WHERE campaign_id IN (
		SELECT id FROM campaigns WHERE channel = ANY($1))`
	campSQL := `DELETE FROM campaigns WHERE channel = ANY($1)`
	args := []any{chs}
	if len(advertiserIDs) > 0 {
		estSQL = `DELETE FROM spend_estimates WHERE campaign_id IN (
			SELECT id FROM campaigns WHERE channel = ANY($1) AND advertiser_id = ANY($2))`
		campSQL = `DELETE FROM campaigns WHERE channel = ANY($1) AND advertiser_id = ANY($2)`
		args = append(args, advertiserIDs)
	}

	if _, err := tx.Exec(ctx, estSQL, args...); err != nil {
		return eris.Wrap(err, "campaign: delete scoped estimates")
	}
	if _, err := tx.Exec(ctx, campSQL, args...); err != nil {
		return eris.Wrap(err, "campaign: delete scoped campaigns")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "campaign: commit delete scope")
	}
	return nil
}

// ListObservations returns promotable observations in scope: non-null
// advertiser, non-empty landing URL.
func (s *PostgresStore) ListObservations(ctx context.Context, channels []model.Channel, advertiserIDs []int64) ([]model.Observation, error) {
	sql := `SELECT id, advertiser_id, channel, creative_hash, advertiser_name, ad_text,
		landing_url, ad_type, creative_ref, first_seen, last_seen, seen_count, created_at
		FROM observations
		WHERE channel = ANY($1) AND advertiser_id IS NOT NULL AND landing_url <> ''`
	args := []any{channelStrings(channels)}
	if len(advertiserIDs) > 0 {
		sql += ` AND advertiser_id = ANY($2)`
		args = append(args, advertiserIDs)
	}
	sql += ` ORDER BY advertiser_id, channel, id`

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "campaign: list observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		var channel string
		err := rows.Scan(
			&o.ID, &o.AdvertiserID, &channel, &o.CreativeHash, &o.AdvertiserName, &o.AdText,
			&o.LandingURL, &o.AdType, &o.CreativeRef, &o.FirstSeen, &o.LastSeen, &o.SeenCount, &o.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "campaign: scan observation")
		}
		o.Channel = model.Channel(channel)
		out = append(out, o)
	}
	return out, rows.Err()
}

// InHouseAdvertisers returns the set of advertisers flagged as the
// platform's own self-promotion.
func (s *PostgresStore) InHouseAdvertisers(ctx context.Context) (map[int64]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM advertisers WHERE in_house`)
	if err != nil {
		return nil, eris.Wrap(err, "campaign: list in-house advertisers")
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "campaign: scan in-house advertiser")
		}
		out[id] = true
	}
	return out, rows.Err()
}

// InsertCampaign inserts a rebuilt campaign.
func (s *PostgresStore) InsertCampaign(ctx context.Context, camp *model.Campaign) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO campaigns
		 (advertiser_id, channel, product_label, first_seen, last_seen,
		  ad_occurrences, snapshot_count, status, total_est_spend, creative_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		camp.AdvertiserID, string(camp.Channel), camp.ProductLabel, camp.FirstSeen, camp.LastSeen,
		camp.AdOccurrences, camp.SnapshotCount, string(camp.Status), camp.TotalEstSpend, camp.CreativeIDs,
	).Scan(&camp.ID, &camp.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "campaign: insert campaign")
	}
	return nil
}

// InsertEstimates bulk-inserts spend estimate rows via COPY.
func (s *PostgresStore) InsertEstimates(ctx context.Context, estimates []model.SpendEstimate) (int64, error) {
	rows := make([][]any, len(estimates))
	for i, e := range estimates {
		factorsJSON, err := json.Marshal(e.Factors)
		if err != nil {
			return 0, eris.Wrap(err, "campaign: marshal estimate factors")
		}
		rows[i] = []any{
			e.CampaignID, e.Date, string(e.Channel), e.DailySpend,
			e.Confidence, e.Method, factorsJSON,
		}
	}

	return db.CopyFrom(ctx, s.pool, "spend_estimates", []string{
		"campaign_id", "date", "channel", "est_daily_spend",
		"confidence", "calculation_method", "factors",
	}, rows)
}

const campaignColumns = `id, advertiser_id, channel, product_label, first_seen, last_seen,
	ad_occurrences, snapshot_count, status, total_est_spend, creative_ids, created_at`

// ListLabeled returns campaigns carrying a product label, the only
// candidates for the cross-channel merge.
func (s *PostgresStore) ListLabeled(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns
		 WHERE product_label IS NOT NULL AND product_label <> '' ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "campaign: list labeled campaigns")
	}
	defer rows.Close()
	return scanCampaigns(rows)
}

func scanCampaigns(rows pgx.Rows) ([]model.Campaign, error) {
	var out []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var channel, status string
		err := rows.Scan(
			&c.ID, &c.AdvertiserID, &channel, &c.ProductLabel, &c.FirstSeen, &c.LastSeen,
			&c.AdOccurrences, &c.SnapshotCount, &status, &c.TotalEstSpend, &c.CreativeIDs, &c.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "campaign: scan campaign")
		}
		c.Channel = model.Channel(channel)
		c.Status = model.CampaignStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateMergedCampaign stores the folded aggregate on the survivor.
func (s *PostgresStore) UpdateMergedCampaign(ctx context.Context, camp *model.Campaign) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE campaigns SET
			first_seen = $2, last_seen = $3, ad_occurrences = $4,
			snapshot_count = $5, status = $6, total_est_spend = $7, creative_ids = $8
		 WHERE id = $1`,
		camp.ID, camp.FirstSeen, camp.LastSeen, camp.AdOccurrences,
		camp.SnapshotCount, string(camp.Status), camp.TotalEstSpend, camp.CreativeIDs,
	)
	if err != nil {
		return eris.Wrapf(err, "campaign: update merged campaign %d", camp.ID)
	}
	return nil
}

// ReassignEstimates moves estimate rows from a merged-away campaign to
// the survivor.
func (s *PostgresStore) ReassignEstimates(ctx context.Context, fromCampaignID, toCampaignID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE spend_estimates SET campaign_id = $2 WHERE campaign_id = $1`,
		fromCampaignID, toCampaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "campaign: reassign estimates %d -> %d", fromCampaignID, toCampaignID)
	}
	return nil
}

// DeleteCampaign removes one merged-away campaign row.
func (s *PostgresStore) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "campaign: delete campaign %d", id)
	}
	return nil
}
