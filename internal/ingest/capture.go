package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/adlens/spend-cli/internal/model"
)

// ReadCaptureFile loads raw sightings from a crawler SQLite capture file.
// The crawler writes one `sightings` table per capture session; every row
// becomes a pending RawSighting tagged with a fresh batch id.
func ReadCaptureFile(ctx context.Context, path string) ([]model.RawSighting, string, error) {
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "capture: open %s", path)
	}
	defer dbh.Close() //nolint:errcheck

	batchID := uuid.NewString()

	rows, err := dbh.QueryContext(ctx,
		`SELECT channel, advertiser_name, ad_text, description, position,
		        landing_url, display_url, ad_type, placement, creative_ref,
		        extra, captured_at
		 FROM sightings ORDER BY rowid`,
	)
	if err != nil {
		return nil, "", eris.Wrapf(err, "capture: query sightings in %s", path)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RawSighting
	for rows.Next() {
		var (
			r          model.RawSighting
			channel    string
			extraJSON  sql.NullString
			capturedAt string
		)
		err := rows.Scan(
			&channel, &r.AdvertiserName, &r.AdText, &r.Description, &r.Position,
			&r.LandingURL, &r.DisplayURL, &r.AdType, &r.Placement, &r.CreativeRef,
			&extraJSON, &capturedAt,
		)
		if err != nil {
			return nil, "", eris.Wrap(err, "capture: scan sighting")
		}

		r.BatchID = batchID
		r.Channel = model.Channel(channel)
		r.Status = model.SightingPending

		if extraJSON.Valid && extraJSON.String != "" {
			if err := json.Unmarshal([]byte(extraJSON.String), &r.Extra); err != nil {
				zap.L().Debug("capture: unparsable extra payload dropped", zap.Error(err))
			}
		}

		t, err := parseCaptureTime(capturedAt)
		if err != nil {
			return nil, "", eris.Wrapf(err, "capture: parse captured_at %q", capturedAt)
		}
		r.CapturedAt = t

		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, "", eris.Wrap(err, "capture: iterate sightings")
	}

	return out, batchID, nil
}

// parseCaptureTime accepts the timestamp layouts crawler builds have
// historically produced.
func parseCaptureTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognized timestamp layout: %s", s)
}

// Import reads a capture file and stages its sightings. Rows with an
// unknown channel are skipped and counted, not fatal.
func Import(ctx context.Context, store Store, path string) (*ImportResult, error) {
	log := zap.L().With(zap.String("phase", "import"), zap.String("file", path))

	sightings, batchID, err := ReadCaptureFile(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Read: len(sightings)}
	valid := sightings[:0]
	for _, s := range sightings {
		if !s.Channel.Valid() {
			log.Debug("skipping sighting with unknown channel", zap.String("channel", string(s.Channel)))
			result.Skipped++
			continue
		}
		valid = append(valid, s)
	}

	n, err := store.BulkInsertSightings(ctx, valid)
	if err != nil {
		return nil, err
	}
	result.Inserted = n

	log.Info("import complete",
		zap.String("batch_id", batchID),
		zap.Int("read", result.Read),
		zap.Int64("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
