package signal

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/model"
)

// TrendSource supplies 0-100 search interest indexes for terms.
// pkg/trends implements it.
type TrendSource interface {
	Interest(ctx context.Context, terms []string) (map[string]float64, error)
}

// CollectResult summarizes one trend collection run.
type CollectResult struct {
	Advertisers int `json:"advertisers"`
	Updated     int `json:"updated"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}

// CollectTrendScores fills the trend sub-score for every advertiser
// with an active campaign, querying the trend index by advertiser name.
// Existing sub-scores for the day are preserved.
func CollectTrendScores(ctx context.Context, store Store, src TrendSource, date time.Time) (*CollectResult, error) {
	log := zap.L().With(zap.String("phase", "collect_trends"))

	advertisers, err := store.ActiveAdvertisers(ctx)
	if err != nil {
		return nil, err
	}
	result := &CollectResult{Advertisers: len(advertisers)}
	if len(advertisers) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(advertisers))
	for id := range advertisers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = strings.ToLower(advertisers[id])
	}

	interest, err := src.Interest(ctx, terms)
	if err != nil {
		return nil, eris.Wrap(err, "signal: fetch trend indexes")
	}

	var batch []model.SignalScores
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		index, ok := interest[terms[i]]
		if !ok {
			log.Debug("signal: no trend data", zap.Int64("advertiser_id", id))
			result.Skipped++
			continue
		}

		scores, err := store.GetScores(ctx, id, date)
		if err != nil {
			log.Warn("signal: load scores failed", zap.Int64("advertiser_id", id), zap.Error(err))
			result.Errors++
			continue
		}
		trend := clampScore(index)
		scores.Trend = &trend
		batch = append(batch, *scores)
		result.Updated++
	}

	if len(batch) > 0 {
		if _, err := store.UpsertScores(ctx, batch); err != nil {
			return nil, eris.Wrap(err, "signal: store trend scores")
		}
	}

	log.Info("signal: trend collection complete",
		zap.Int("advertisers", result.Advertisers),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
