package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/model"
)

// promoteOutcome distinguishes a fresh observation from a dedup hit.
type promoteOutcome int

const (
	outcomeCreated promoteOutcome = iota
	outcomeDeduped
	outcomeSkipped
)

// Promote turns one approved sighting into at most one canonical
// observation per identity. Lookup precedence: exact creative hash within
// the channel, then the (name, text, url) fallback tuple when at least
// one field is non-null. A match increments seen_count and extends
// last_seen; no new row is created. This is the invariant that prevents
// double-counted spend.
func Promote(ctx context.Context, store Store, enricher Enricher, s *model.RawSighting) (promoteOutcome, bool, error) {
	hash := CreativeHash(s)

	obs, err := store.GetObservationByHash(ctx, s.Channel, hash)
	if err != nil {
		return outcomeSkipped, false, eris.Wrap(err, "promote: lookup by hash")
	}

	if obs == nil {
		// Fallback tuple match, guarded against all-null rows.
		name := normalizedNamePtr(s)
		text := normalizeText(s.AdText)
		url := normalizeURL(s.LandingURL)
		if name != nil || text != "" || url != "" {
			obs, err = store.FindObservationByTuple(ctx, s.Channel, name, text, url)
			if err != nil {
				return outcomeSkipped, false, eris.Wrap(err, "promote: lookup by tuple")
			}
		}
	}

	if obs != nil {
		if err := store.TouchObservation(ctx, obs.ID, s.CapturedAt); err != nil {
			return outcomeSkipped, false, eris.Wrap(err, "promote: touch observation")
		}
		if err := store.MarkSightingPromoted(ctx, s.ID, model.SightingDeduped); err != nil {
			return outcomeSkipped, false, eris.Wrap(err, "promote: mark deduped")
		}
		return outcomeDeduped, false, nil
	}

	advertiserID, created, err := resolveAdvertiser(ctx, store, enricher, s)
	if err != nil {
		return outcomeSkipped, false, eris.Wrap(err, "promote: resolve advertiser")
	}

	newObs := &model.Observation{
		AdvertiserID:   advertiserID,
		Channel:        s.Channel,
		CreativeHash:   hash,
		AdvertiserName: s.AdvertiserName,
		AdText:         s.AdText,
		LandingURL:     s.LandingURL,
		AdType:         s.AdType,
		CreativeRef:    s.CreativeRef,
		FirstSeen:      s.CapturedAt,
		LastSeen:       s.CapturedAt,
		SeenCount:      1,
	}
	if err := store.CreateObservation(ctx, newObs); err != nil {
		return outcomeSkipped, false, eris.Wrap(err, "promote: create observation")
	}
	if err := store.MarkSightingPromoted(ctx, s.ID, model.SightingApproved); err != nil {
		return outcomeSkipped, false, eris.Wrap(err, "promote: mark promoted")
	}
	return outcomeCreated, created, nil
}

// resolveAdvertiser finds or creates the advertiser for a sighting.
// A name that fails verification nulls the advertiser reference; the
// observation is still kept.
func resolveAdvertiser(ctx context.Context, store Store, enricher Enricher, s *model.RawSighting) (*int64, bool, error) {
	if s.AdvertiserName == nil || !ValidName(*s.AdvertiserName) {
		return nil, false, nil
	}

	name := NormalizeName(*s.AdvertiserName)
	adv, err := store.GetAdvertiserByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if adv != nil {
		return &adv.ID, false, nil
	}

	adv = &model.Advertiser{Name: name}
	if err := store.CreateAdvertiser(ctx, adv); err != nil {
		return nil, false, err
	}

	// Best-effort website/social inference from the landing page. Not
	// required for correctness; failures are logged and dropped.
	if enricher != nil && s.LandingURL != "" {
		if enr, enrichErr := enricher.Enrich(ctx, s.LandingURL); enrichErr != nil {
			zap.L().Debug("advertiser enrichment failed",
				zap.String("url", s.LandingURL), zap.Error(enrichErr))
		} else if enr != nil {
			if err := store.UpdateAdvertiserEnrichment(ctx, adv.ID, enr.Website, enr.Social); err != nil {
				zap.L().Warn("store advertiser enrichment failed",
					zap.Int64("advertiser_id", adv.ID), zap.Error(err))
			}
		}
	}

	return &adv.ID, true, nil
}

func normalizedNamePtr(s *model.RawSighting) *string {
	if s.AdvertiserName == nil || !ValidName(*s.AdvertiserName) {
		return nil
	}
	n := NormalizeName(*s.AdvertiserName)
	return &n
}

// RunPromote promotes all approved, not-yet-promoted sightings. Per-row
// errors are isolated and counted; the batch continues.
func RunPromote(ctx context.Context, store Store, enricher Enricher, limit int) (*PromoteResult, error) {
	log := zap.L().With(zap.String("phase", "promote"))

	sightings, err := store.ListUnpromoted(ctx, limit)
	if err != nil {
		return nil, err
	}

	log.Info("running promote", zap.Int("approved", len(sightings)))

	result := &PromoteResult{}
	start := time.Now()
	for i := range sightings {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		s := &sightings[i]
		result.Processed++

		outcome, advertiserCreated, err := Promote(ctx, store, enricher, s)
		if err != nil {
			log.Warn("promote sighting failed", zap.Int64("id", s.ID), zap.Error(err))
			result.Errors++
			continue
		}
		if advertiserCreated {
			result.AdvertisersCreated++
		}
		switch outcome {
		case outcomeCreated:
			result.Promoted++
		case outcomeDeduped:
			result.Deduped++
		default:
			result.Skipped++
		}
	}

	log.Info("promote complete",
		zap.Int("promoted", result.Promoted),
		zap.Int("deduped", result.Deduped),
		zap.Int("advertisers_created", result.AdvertisersCreated),
		zap.Int("errors", result.Errors),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
