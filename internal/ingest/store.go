package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/adlens/spend-cli/internal/db"
	"github.com/adlens/spend-cli/internal/model"
)

// Store defines persistence operations for the ingest gate.
type Store interface {
	BulkInsertSightings(ctx context.Context, sightings []model.RawSighting) (int64, error)
	ListSightings(ctx context.Context, status model.SightingStatus, limit int) ([]model.RawSighting, error)
	ListUnpromoted(ctx context.Context, limit int) ([]model.RawSighting, error)
	UpdateSightingWash(ctx context.Context, id int64, status model.SightingStatus, reason string, score float64) error
	MarkSightingPromoted(ctx context.Context, id int64, status model.SightingStatus) error
	ReviewSighting(ctx context.Context, id int64, status model.SightingStatus) error

	GetObservationByHash(ctx context.Context, channel model.Channel, hash string) (*model.Observation, error)
	FindObservationByTuple(ctx context.Context, channel model.Channel, name *string, text, url string) (*model.Observation, error)
	TouchObservation(ctx context.Context, id int64, seenAt time.Time) error
	CreateObservation(ctx context.Context, obs *model.Observation) error

	GetAdvertiserByName(ctx context.Context, name string) (*model.Advertiser, error)
	CreateAdvertiser(ctx context.Context, adv *model.Advertiser) error
	UpdateAdvertiserEnrichment(ctx context.Context, id int64, website, social string) error
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const sightingColumns = `id, batch_id, channel, advertiser_name, ad_text, description, position,
	landing_url, display_url, ad_type, placement, creative_ref, extra, captured_at,
	status, status_reason, wash_score, created_at`

// BulkInsertSightings appends raw sightings to the staging table.
// Re-delivered batches land as duplicate rows here; the promote pass
// collapses them against the creative hash.
func (s *PostgresStore) BulkInsertSightings(ctx context.Context, sightings []model.RawSighting) (int64, error) {
	if len(sightings) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(sightings))
	for i, r := range sightings {
		extraJSON, err := json.Marshal(r.Extra)
		if err != nil {
			return 0, eris.Wrap(err, "ingest: marshal sighting extra")
		}
		rows[i] = []any{
			r.BatchID, string(r.Channel), r.AdvertiserName, r.AdText, r.Description,
			r.Position, r.LandingURL, r.DisplayURL, r.AdType, r.Placement,
			r.CreativeRef, extraJSON, r.CapturedAt, string(model.SightingPending),
		}
	}

	return db.CopyFrom(ctx, s.pool, "raw_sightings", []string{
		"batch_id", "channel", "advertiser_name", "ad_text", "description",
		"position", "landing_url", "display_url", "ad_type", "placement",
		"creative_ref", "extra", "captured_at", "status",
	}, rows)
}

// ListSightings returns sightings in the given status, oldest first.
func (s *PostgresStore) ListSightings(ctx context.Context, status model.SightingStatus, limit int) ([]model.RawSighting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sightingColumns+` FROM raw_sightings
		 WHERE status = $1 ORDER BY id LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: list %s sightings", status)
	}
	defer rows.Close()
	return scanSightings(rows)
}

// ListUnpromoted returns approved sightings not yet seen by the promote pass.
func (s *PostgresStore) ListUnpromoted(ctx context.Context, limit int) ([]model.RawSighting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sightingColumns+` FROM raw_sightings
		 WHERE status = 'approved' AND promoted_at IS NULL ORDER BY id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: list unpromoted sightings")
	}
	defer rows.Close()
	return scanSightings(rows)
}

func scanSightings(rows pgx.Rows) ([]model.RawSighting, error) {
	var out []model.RawSighting
	for rows.Next() {
		var r model.RawSighting
		var channel, status string
		var extraJSON []byte
		err := rows.Scan(
			&r.ID, &r.BatchID, &channel, &r.AdvertiserName, &r.AdText, &r.Description,
			&r.Position, &r.LandingURL, &r.DisplayURL, &r.AdType, &r.Placement,
			&r.CreativeRef, &extraJSON, &r.CapturedAt,
			&status, &r.StatusReason, &r.WashScore, &r.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: scan sighting")
		}
		r.Channel = model.Channel(channel)
		r.Status = model.SightingStatus(status)
		if len(extraJSON) > 0 {
			if err := json.Unmarshal(extraJSON, &r.Extra); err != nil {
				return nil, eris.Wrap(err, "ingest: unmarshal sighting extra")
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateSightingWash records a wash verdict.
func (s *PostgresStore) UpdateSightingWash(ctx context.Context, id int64, status model.SightingStatus, reason string, score float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE raw_sightings SET status = $2, status_reason = $3, wash_score = $4 WHERE id = $1`,
		id, string(status), reason, score,
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: update wash verdict for sighting %d", id)
	}
	return nil
}

// MarkSightingPromoted stamps a sighting as consumed by the promote pass.
// The row is never updated again after this.
func (s *PostgresStore) MarkSightingPromoted(ctx context.Context, id int64, status model.SightingStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE raw_sightings SET status = $2, promoted_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: mark sighting %d promoted", id)
	}
	return nil
}

// ReviewSighting resolves a quarantined sighting.
func (s *PostgresStore) ReviewSighting(ctx context.Context, id int64, status model.SightingStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE raw_sightings SET status = $2, status_reason = 'reviewed'
		 WHERE id = $1 AND status = 'quarantine'`,
		id, string(status),
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: review sighting %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ingest: sighting %d is not in quarantine", id)
	}
	return nil
}

const observationColumns = `id, advertiser_id, channel, creative_hash, advertiser_name, ad_text,
	landing_url, ad_type, creative_ref, first_seen, last_seen, seen_count, created_at`

// GetObservationByHash looks up an observation by creative hash within a channel.
func (s *PostgresStore) GetObservationByHash(ctx context.Context, channel model.Channel, hash string) (*model.Observation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+observationColumns+` FROM observations
		 WHERE channel = $1 AND creative_hash = $2`,
		string(channel), hash,
	)
	return scanObservation(row)
}

// FindObservationByTuple matches on (advertiser_name, text, url) within a
// channel. Callers must guarantee at least one field is non-null; the
// query also guards against matching all-null rows.
func (s *PostgresStore) FindObservationByTuple(ctx context.Context, channel model.Channel, name *string, text, url string) (*model.Observation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+observationColumns+` FROM observations
		 WHERE channel = $1
		   AND advertiser_name IS NOT DISTINCT FROM $2
		   AND lower(ad_text) = lower($3)
		   AND lower(landing_url) = lower($4)
		   AND (advertiser_name IS NOT NULL OR ad_text <> '' OR landing_url <> '')
		 ORDER BY id LIMIT 1`,
		string(channel), name, text, url,
	)
	return scanObservation(row)
}

func scanObservation(row pgx.Row) (*model.Observation, error) {
	var o model.Observation
	var channel string
	err := row.Scan(
		&o.ID, &o.AdvertiserID, &channel, &o.CreativeHash, &o.AdvertiserName, &o.AdText,
		&o.LandingURL, &o.AdType, &o.CreativeRef, &o.FirstSeen, &o.LastSeen, &o.SeenCount, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "ingest: scan observation")
	}
	o.Channel = model.Channel(channel)
	return &o, nil
}

// TouchObservation increments seen_count and extends last_seen. This is
// the only write path for either column.
func (s *PostgresStore) TouchObservation(ctx context.Context, id int64, seenAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE observations
		 SET seen_count = seen_count + 1,
		     last_seen = GREATEST(last_seen, $2),
		     first_seen = LEAST(first_seen, $2)
		 WHERE id = $1`,
		id, seenAt,
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: touch observation %d", id)
	}
	return nil
}

// CreateObservation inserts a fresh canonical observation.
func (s *PostgresStore) CreateObservation(ctx context.Context, obs *model.Observation) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO observations
		 (advertiser_id, channel, creative_hash, advertiser_name, ad_text, landing_url,
		  ad_type, creative_ref, first_seen, last_seen, seen_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		obs.AdvertiserID, string(obs.Channel), obs.CreativeHash, obs.AdvertiserName,
		obs.AdText, obs.LandingURL, obs.AdType, obs.CreativeRef,
		obs.FirstSeen, obs.LastSeen, obs.SeenCount,
	).Scan(&obs.ID, &obs.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "ingest: create observation")
	}
	return nil
}

// GetAdvertiserByName looks up an advertiser by normalized name.
func (s *PostgresStore) GetAdvertiserByName(ctx context.Context, name string) (*model.Advertiser, error) {
	var a model.Advertiser
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, website, social, industry, size_bucket, in_house, created_at
		 FROM advertisers WHERE name = $1`,
		name,
	).Scan(&a.ID, &a.Name, &a.Website, &a.Social, &a.Industry, &a.SizeBucket, &a.InHouse, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ingest: get advertiser %q", name)
	}
	return &a, nil
}

// CreateAdvertiser inserts a new advertiser identity.
func (s *PostgresStore) CreateAdvertiser(ctx context.Context, adv *model.Advertiser) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO advertisers (name, website, social, industry, size_bucket, in_house)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		adv.Name, adv.Website, adv.Social, adv.Industry, adv.SizeBucket, adv.InHouse,
	).Scan(&adv.ID, &adv.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "ingest: create advertiser %q", adv.Name)
	}
	return nil
}

// UpdateAdvertiserEnrichment stores inferred website/social metadata.
// Existing non-empty values are kept: enrichment never overwrites.
func (s *PostgresStore) UpdateAdvertiserEnrichment(ctx context.Context, id int64, website, social string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE advertisers SET
			website = CASE WHEN website = '' THEN $2 ELSE website END,
			social  = CASE WHEN social  = '' THEN $3 ELSE social  END
		 WHERE id = $1`,
		id, website, social,
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: update advertiser %d enrichment", id)
	}
	return nil
}
