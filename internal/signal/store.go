package signal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/adlens/spend-cli/internal/db"
	"github.com/adlens/spend-cli/internal/model"
)

// Store defines persistence operations for the signal layer.
type Store interface {
	GetScores(ctx context.Context, advertiserID int64, date time.Time) (*model.SignalScores, error)
	UpsertScores(ctx context.Context, scores []model.SignalScores) (int64, error)
	ListSignaledAdvertisers(ctx context.Context, date time.Time) ([]int64, error)
	ActiveAdvertisers(ctx context.Context) (map[int64]string, error)
	ObservationCounts(ctx context.Context, advertiserID int64) (automated, human int, err error)
	UpsertComposite(ctx context.Context, composite *model.SignalComposite) error
	ChannelMonthlySum(ctx context.Context, channel model.Channel, since time.Time) (float64, error)
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// GetScores returns the sub-scores collected for one advertiser and
// day. A missing row is not an error; it yields all-nil scores.
func (s *PostgresStore) GetScores(ctx context.Context, advertiserID int64, date time.Time) (*model.SignalScores, error) {
	scores := &model.SignalScores{AdvertiserID: advertiserID, Date: date}
	err := s.pool.QueryRow(ctx,
		`SELECT commerce_score, trend_score, creative_score, sampling_score
		 FROM signal_scores WHERE advertiser_id = $1 AND date = $2`,
		advertiserID, date,
	).Scan(&scores.Commerce, &scores.Trend, &scores.Creative, &scores.Sampling)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scores, nil
		}
		return nil, eris.Wrapf(err, "signal: get scores for advertiser %d", advertiserID)
	}
	return scores, nil
}

// UpsertScores bulk-loads collected sub-scores.
func (s *PostgresStore) UpsertScores(ctx context.Context, scores []model.SignalScores) (int64, error) {
	rows := make([][]any, len(scores))
	for i, sc := range scores {
		rows[i] = []any{sc.AdvertiserID, sc.Date, sc.Commerce, sc.Trend, sc.Creative, sc.Sampling}
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "signal_scores",
		Columns: []string{
			"advertiser_id", "date", "commerce_score", "trend_score",
			"creative_score", "sampling_score",
		},
		ConflictKeys: []string{"advertiser_id", "date"},
	}, rows)
}

// ListSignaledAdvertisers returns every advertiser with at least one
// sub-score for the day.
func (s *PostgresStore) ListSignaledAdvertisers(ctx context.Context, date time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT advertiser_id FROM signal_scores WHERE date = $1 ORDER BY advertiser_id`,
		date,
	)
	if err != nil {
		return nil, eris.Wrap(err, "signal: list signaled advertisers")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "signal: scan advertiser id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ActiveAdvertisers returns id and name for every advertiser with at
// least one active campaign.
func (s *PostgresStore) ActiveAdvertisers(ctx context.Context) (map[int64]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.name FROM advertisers a
		 WHERE EXISTS (
			SELECT 1 FROM campaigns c
			WHERE c.advertiser_id = a.id AND c.status = 'active'
		 )`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "signal: list active advertisers")
	}
	defer rows.Close()

	out := map[int64]string{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, eris.Wrap(err, "signal: scan advertiser")
		}
		out[id] = name
	}
	return out, rows.Err()
}

// ObservationCounts compares automated collection volume against
// human-verified volume for one advertiser. Human-verified means a
// quarantined sighting an admin approved.
func (s *PostgresStore) ObservationCounts(ctx context.Context, advertiserID int64) (int, int, error) {
	var automated int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(seen_count), 0) FROM observations WHERE advertiser_id = $1`,
		advertiserID,
	).Scan(&automated)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "signal: automated count for advertiser %d", advertiserID)
	}

	var human int
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM raw_sightings rs
		 JOIN observations o ON o.channel = rs.channel AND o.advertiser_id = $1
		 WHERE rs.status = 'approved' AND rs.status_reason = 'reviewed'
		   AND lower(rs.advertiser_name) = lower(o.advertiser_name)`,
		advertiserID,
	).Scan(&human)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "signal: human count for advertiser %d", advertiserID)
	}

	return automated, human, nil
}

// UpsertComposite stores one fused composite, replacing any previous
// fusion for the same advertiser and day.
func (s *PostgresStore) UpsertComposite(ctx context.Context, c *model.SignalComposite) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO signal_composites
		 (advertiser_id, date, commerce_score, trend_score, creative_score,
		  sampling_score, panel_ratio, composite_score, spend_multiplier)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (advertiser_id, date) DO UPDATE SET
			commerce_score = EXCLUDED.commerce_score,
			trend_score = EXCLUDED.trend_score,
			creative_score = EXCLUDED.creative_score,
			sampling_score = EXCLUDED.sampling_score,
			panel_ratio = EXCLUDED.panel_ratio,
			composite_score = EXCLUDED.composite_score,
			spend_multiplier = EXCLUDED.spend_multiplier
		 RETURNING id`,
		c.AdvertiserID, c.Date, c.CommerceScore, c.TrendScore, c.CreativeScore,
		c.SamplingScore, c.PanelRatio, c.CompositeScore, c.SpendMultiplier,
	).Scan(&c.ID)
	if err != nil {
		return eris.Wrapf(err, "signal: upsert composite for advertiser %d", c.AdvertiserID)
	}
	return nil
}

// ChannelMonthlySum aggregates the primary engine's estimates for one
// channel since the given date.
func (s *PostgresStore) ChannelMonthlySum(ctx context.Context, channel model.Channel, since time.Time) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(est_daily_spend), 0) FROM spend_estimates
		 WHERE channel = $1 AND date >= $2`,
		string(channel), since,
	).Scan(&sum)
	if err != nil {
		return 0, eris.Wrapf(err, "signal: monthly sum for channel %s", channel)
	}
	return sum, nil
}
