// Package signal fuses independent market-activity signals into one
// composite score per advertiser and day, and bridges the secondary
// sampling mechanism into the same spend currency as the primary engine.
package signal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/config"
	"github.com/adlens/spend-cli/internal/model"
)

// Panel ratio clamp. The ratio corrects automated counts against
// human-verified ones and is deliberately allowed a much wider range
// than the benchmark calibration factor.
const (
	panelRatioMin = 0.1
	panelRatioMax = 50.0
)

// FuseResult summarizes one fusion pass.
type FuseResult struct {
	Processed int `json:"processed"`
	Fused     int `json:"fused"`
	Errors    int `json:"errors"`
}

// Fuse computes one advertiser's composite for one day. Missing
// sub-scores default to zero; a missing panel comparison defaults to
// the neutral ratio.
func Fuse(ctx context.Context, store Store, cfg *config.FusionConfig, advertiserID int64, date time.Time) (*model.SignalComposite, error) {
	scores, err := store.GetScores(ctx, advertiserID, date)
	if err != nil {
		return nil, err
	}
	automated, human, err := store.ObservationCounts(ctx, advertiserID)
	if err != nil {
		return nil, err
	}

	composite := Compose(cfg, scores, automated, human)
	composite.AdvertiserID = advertiserID
	composite.Date = date

	if err := store.UpsertComposite(ctx, composite); err != nil {
		return nil, err
	}
	return composite, nil
}

// Compose is the pure fusion arithmetic, separated from storage.
func Compose(cfg *config.FusionConfig, scores *model.SignalScores, automated, human int) *model.SignalComposite {
	c := &model.SignalComposite{
		CommerceScore: scoreOrZero(scores.Commerce),
		TrendScore:    scoreOrZero(scores.Trend),
		CreativeScore: scoreOrZero(scores.Creative),
		SamplingScore: scoreOrZero(scores.Sampling),
	}

	weighted := c.CommerceScore*cfg.CommerceWeight +
		c.TrendScore*cfg.TrendWeight +
		c.CreativeScore*cfg.CreativeWeight +
		c.SamplingScore*cfg.SamplingWeight

	c.PanelRatio = panelRatio(cfg, automated, human)
	c.CompositeScore = clampScore(weighted * c.PanelRatio)
	c.SpendMultiplier = SpendMultiplier(c.CompositeScore)
	return c
}

// panelRatio compares automated and human-verified observation counts.
// No human data means neutral; human data with silent automated
// collection gets a fixed upward nudge.
func panelRatio(cfg *config.FusionConfig, automated, human int) float64 {
	if human <= 0 {
		return 1.0
	}
	if automated <= 0 {
		return cfg.PanelSilentBump
	}
	ratio := float64(human) / float64(automated)
	if ratio < panelRatioMin {
		return panelRatioMin
	}
	if ratio > panelRatioMax {
		return panelRatioMax
	}
	return ratio
}

// SpendMultiplier maps a composite score to the market-activity
// multiplier, piecewise-linear through (0, 0.7), (50, 1.0), (100, 1.5).
func SpendMultiplier(score float64) float64 {
	score = clampScore(score)
	if score <= 50 {
		return 0.7 + score/50*0.3
	}
	return 1.0 + (score-50)/50*0.5
}

func scoreOrZero(s *float64) float64 {
	if s == nil {
		return 0
	}
	return clampScore(*s)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// RunFuse fuses every advertiser that has any signal for the day.
// Per-advertiser errors are isolated and counted.
func RunFuse(ctx context.Context, store Store, cfg *config.FusionConfig, date time.Time) (*FuseResult, error) {
	log := zap.L().With(zap.String("phase", "fuse"))

	advertiserIDs, err := store.ListSignaledAdvertisers(ctx, date)
	if err != nil {
		return nil, err
	}

	log.Info("running signal fusion",
		zap.Time("date", date), zap.Int("advertisers", len(advertiserIDs)))

	result := &FuseResult{}
	for _, id := range advertiserIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Processed++
		if _, err := Fuse(ctx, store, cfg, id, date); err != nil {
			log.Warn("fuse advertiser failed", zap.Int64("advertiser_id", id), zap.Error(err))
			result.Errors++
			continue
		}
		result.Fused++
	}

	log.Info("signal fusion complete",
		zap.Int("fused", result.Fused), zap.Int("errors", result.Errors))
	return result, nil
}
