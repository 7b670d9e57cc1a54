package calibrate

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/adlens/spend-cli/internal/db"
	"github.com/adlens/spend-cli/internal/model"
)

// Store defines persistence operations for the calibration layer.
type Store interface {
	ListUncomputed(ctx context.Context) ([]model.Benchmark, error)
	ListComputed(ctx context.Context) ([]model.Benchmark, error)
	SumEstimates(ctx context.Context, advertiserID int64, channel model.Channel, start, end time.Time) (float64, error)
	SetBenchmarkFactor(ctx context.Context, id int64, estimatedMonthly, factor float64) error
	UpsertBenchmarks(ctx context.Context, benchmarks []model.Benchmark) (int64, error)
	AdvertiserTraits(ctx context.Context) (map[int64]AdvertiserTraits, error)
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const benchmarkColumns = `id, advertiser_id, channel, period_start, period_end,
	actual_monthly_spend, estimated_monthly_spend, calibration_factor,
	industry, size_bucket, source, created_at`

// ListUncomputed returns benchmarks still lacking a calibration factor.
func (s *PostgresStore) ListUncomputed(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+benchmarkColumns+` FROM benchmarks
		 WHERE calibration_factor IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "calibrate: list uncomputed benchmarks")
	}
	defer rows.Close()
	return scanBenchmarks(rows)
}

// ListComputed returns benchmarks with a computed factor.
func (s *PostgresStore) ListComputed(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+benchmarkColumns+` FROM benchmarks
		 WHERE calibration_factor IS NOT NULL ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "calibrate: list computed benchmarks")
	}
	defer rows.Close()
	return scanBenchmarks(rows)
}

func scanBenchmarks(rows pgx.Rows) ([]model.Benchmark, error) {
	var out []model.Benchmark
	for rows.Next() {
		var b model.Benchmark
		var channel string
		err := rows.Scan(
			&b.ID, &b.AdvertiserID, &channel, &b.PeriodStart, &b.PeriodEnd,
			&b.ActualMonthlySpend, &b.EstimatedMonthlySpend, &b.CalibrationFactor,
			&b.Industry, &b.SizeBucket, &b.Source, &b.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "calibrate: scan benchmark")
		}
		b.Channel = model.Channel(channel)
		out = append(out, b)
	}
	return out, rows.Err()
}

// SumEstimates sums the engine's daily estimates for an advertiser and
// channel over a period.
func (s *PostgresStore) SumEstimates(ctx context.Context, advertiserID int64, channel model.Channel, start, end time.Time) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(se.est_daily_spend), 0)
		 FROM spend_estimates se
		 JOIN campaigns c ON c.id = se.campaign_id
		 WHERE c.advertiser_id = $1 AND se.channel = $2
		   AND se.date >= $3 AND se.date <= $4`,
		advertiserID, string(channel), start, end,
	).Scan(&sum)
	if err != nil {
		return 0, eris.Wrapf(err, "calibrate: sum estimates for advertiser %d", advertiserID)
	}
	return sum, nil
}

// SetBenchmarkFactor stores the derived fields of one benchmark.
func (s *PostgresStore) SetBenchmarkFactor(ctx context.Context, id int64, estimatedMonthly, factor float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE benchmarks SET estimated_monthly_spend = $2, calibration_factor = $3 WHERE id = $1`,
		id, estimatedMonthly, factor,
	)
	if err != nil {
		return eris.Wrapf(err, "calibrate: set factor for benchmark %d", id)
	}
	return nil
}

// UpsertBenchmarks bulk-imports human-entered benchmarks. Re-imported
// rows replace the actual figure and clear nothing; derived fields are
// recomputed on the next calibration pass only if still null.
func (s *PostgresStore) UpsertBenchmarks(ctx context.Context, benchmarks []model.Benchmark) (int64, error) {
	rows := make([][]any, len(benchmarks))
	for i, b := range benchmarks {
		rows[i] = []any{
			b.AdvertiserID, string(b.Channel), b.PeriodStart, b.PeriodEnd,
			b.ActualMonthlySpend, b.Industry, b.SizeBucket, b.Source,
		}
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "benchmarks",
		Columns: []string{
			"advertiser_id", "channel", "period_start", "period_end",
			"actual_monthly_spend", "industry", "size_bucket", "source",
		},
		ConflictKeys: []string{"advertiser_id", "channel", "period_start"},
	}, rows)
}

// AdvertiserTraits loads the industry/size metadata the lookup chain
// groups by.
func (s *PostgresStore) AdvertiserTraits(ctx context.Context) (map[int64]AdvertiserTraits, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, industry, size_bucket FROM advertisers
		 WHERE industry <> '' OR size_bucket <> ''`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "calibrate: load advertiser traits")
	}
	defer rows.Close()

	out := map[int64]AdvertiserTraits{}
	for rows.Next() {
		var id int64
		var t AdvertiserTraits
		if err := rows.Scan(&id, &t.Industry, &t.SizeBucket); err != nil {
			return nil, eris.Wrap(err, "calibrate: scan advertiser traits")
		}
		out[id] = t
	}
	return out, rows.Err()
}
