package ingest

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/adlens/spend-cli/internal/config"
	"github.com/adlens/spend-cli/internal/model"
)

// Wash rejection and quarantine reason codes.
const (
	ReasonNoLandingURL  = "no_landing_url"
	ReasonOversizedText = "oversized_text"
	ReasonNonTargetText = "non_target_text"
	ReasonLowScore      = "low_score"
	ReasonMidScore      = "mid_score"
	ReasonInvalidName   = "invalid_name"
)

// WashVerdict is the outcome of washing a single raw sighting.
type WashVerdict struct {
	Status    model.SightingStatus
	Reason    string
	Score     float64
	NameValid bool
}

// namePattern requires at least one letter and a plausible length. Names
// that are bare URLs, phone numbers or punctuation runs fail verification.
var (
	namePattern    = regexp.MustCompile(`\p{L}`)
	urlLikePattern = regexp.MustCompile(`(?i)^(https?://|www\.)`)
	phonePattern   = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

// NormalizeName canonicalizes an advertiser name for verification and
// tuple matching: NFKC normalization, whitespace collapse, case fold.
func NormalizeName(name string) string {
	s := norm.NFKC.String(name)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// ValidName verifies an advertiser name against the name-quality rules.
// An invalid name does not reject the sighting; it nulls the advertiser
// reference and lowers the wash score.
func ValidName(name string) bool {
	s := NormalizeName(name)
	if len(s) < 2 || len(s) > 120 {
		return false
	}
	if !namePattern.MatchString(s) {
		return false
	}
	if urlLikePattern.MatchString(s) || phonePattern.MatchString(s) {
		return false
	}
	return true
}

// targetTextRatio returns the fraction of letters in s that belong to the
// target market's scripts (Latin plus common digits/punctuation are
// counted as neutral and ignored).
func targetTextRatio(s string) float64 {
	var letters, target int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Latin, r) {
			target++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(target) / float64(letters)
}

// Wash applies the quality gate to a single raw sighting. It never
// returns an error: every outcome is a status with a reason code.
func Wash(s *model.RawSighting, cfg *config.WashConfig) WashVerdict {
	text := s.AdText + " " + s.Description

	// Hard rejections first.
	if len(text) > cfg.MaxTextBytes {
		return WashVerdict{Status: model.SightingRejected, Reason: ReasonOversizedText}
	}
	if strings.TrimSpace(s.LandingURL) == "" || !plausibleURL(s.LandingURL) {
		return WashVerdict{Status: model.SightingRejected, Reason: ReasonNoLandingURL}
	}
	if targetTextRatio(text) < cfg.MinTargetTextRatio {
		return WashVerdict{Status: model.SightingRejected, Reason: ReasonNonTargetText}
	}

	nameValid := s.AdvertiserName != nil && ValidName(*s.AdvertiserName)

	// Additive quality score.
	score := 0.5
	if nameValid {
		score += 0.2
	}
	if strings.TrimSpace(s.Description) != "" {
		score += 0.1
	}
	if s.Position != nil {
		score += 0.1
	}
	if s.CreativeRef != nil && *s.CreativeRef != "" {
		score += 0.1
	}

	verdict := WashVerdict{Score: score, NameValid: nameValid}
	switch {
	case score < cfg.RejectThreshold:
		verdict.Status = model.SightingRejected
		verdict.Reason = ReasonLowScore
	case score < cfg.QuarantineThreshold:
		verdict.Status = model.SightingQuarantine
		verdict.Reason = ReasonMidScore
	default:
		verdict.Status = model.SightingApproved
		if !nameValid {
			verdict.Reason = ReasonInvalidName
		}
	}
	return verdict
}

// plausibleURL checks that a landing URL parses and has a host.
func plausibleURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return false
		}
	}
	return u.Hostname() != "" && strings.Contains(u.Hostname(), ".")
}

// RunWash washes all pending sightings and records each verdict. One bad
// row never aborts the pass.
func RunWash(ctx context.Context, store Store, cfg *config.WashConfig, limit int) (*WashResult, error) {
	log := zap.L().With(zap.String("phase", "wash"))

	sightings, err := store.ListSightings(ctx, model.SightingPending, limit)
	if err != nil {
		return nil, err
	}

	log.Info("running wash", zap.Int("pending", len(sightings)))

	result := &WashResult{}
	for i := range sightings {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		s := &sightings[i]
		result.Processed++

		verdict := Wash(s, cfg)
		if err := store.UpdateSightingWash(ctx, s.ID, verdict.Status, verdict.Reason, verdict.Score); err != nil {
			log.Warn("record wash verdict failed", zap.Int64("id", s.ID), zap.Error(err))
			result.Errors++
			continue
		}

		switch verdict.Status {
		case model.SightingApproved:
			result.Approved++
		case model.SightingQuarantine:
			result.Quarantined++
		case model.SightingRejected:
			result.Rejected++
		}
	}

	log.Info("wash complete",
		zap.Int("approved", result.Approved),
		zap.Int("quarantined", result.Quarantined),
		zap.Int("rejected", result.Rejected),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// Review resolves a quarantined sighting from the admin surface.
// Quarantine is terminal-pending: only an explicit approve or reject
// moves it.
func Review(ctx context.Context, store Store, id int64, approve bool) error {
	status := model.SightingRejected
	if approve {
		status = model.SightingApproved
	}
	return store.ReviewSighting(ctx, id, status)
}
