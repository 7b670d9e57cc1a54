// Package calibrate corrects engine output against human-entered
// ground-truth benchmarks, grouped by industry, size bucket and channel.
package calibrate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/config"
	"github.com/adlens/spend-cli/internal/model"
)

// ComputeResult summarizes one calibration pass.
type ComputeResult struct {
	Processed    int                `json:"processed"`
	Updated      int                `json:"updated"`
	Skipped      int                `json:"skipped"`
	Errors       int                `json:"errors"`
	GroupFactors map[string]float64 `json:"group_factors"`
}

// ComputeFactors fills in the derived fields of every benchmark that
// lacks a calibration factor: the engine's estimates for the benchmark
// period are summed, converted to a monthly equivalent, and the
// actual/estimated ratio is clamped to the configured range. A zero
// estimate yields the neutral factor. Group averages over
// (industry, size bucket, channel) are recomputed from all computed
// benchmarks at the end.
func ComputeFactors(ctx context.Context, store Store, cfg *config.CalibrationConfig) (*ComputeResult, error) {
	log := zap.L().With(zap.String("phase", "calibrate"))

	benchmarks, err := store.ListUncomputed(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("running factor computation", zap.Int("uncomputed", len(benchmarks)))

	result := &ComputeResult{GroupFactors: map[string]float64{}}
	for i := range benchmarks {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		b := &benchmarks[i]
		result.Processed++

		estimated, err := store.SumEstimates(ctx, b.AdvertiserID, b.Channel, b.PeriodStart, b.PeriodEnd)
		if err != nil {
			log.Warn("sum estimates failed",
				zap.Int64("benchmark_id", b.ID), zap.Error(err))
			result.Errors++
			continue
		}

		monthly := monthlyEquivalent(estimated, b.PeriodStart, b.PeriodEnd)
		factor := 1.0
		if monthly > 0 {
			factor = clampFactor(b.ActualMonthlySpend/monthly, cfg)
		}

		if err := store.SetBenchmarkFactor(ctx, b.ID, monthly, factor); err != nil {
			log.Warn("store factor failed",
				zap.Int64("benchmark_id", b.ID), zap.Error(err))
			result.Errors++
			continue
		}
		result.Updated++
	}

	computed, err := store.ListComputed(ctx)
	if err != nil {
		return result, err
	}
	result.GroupFactors = groupAverages(computed, cfg)

	log.Info("calibration complete",
		zap.Int("updated", result.Updated),
		zap.Int("groups", len(result.GroupFactors)),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// monthlyEquivalent normalizes a period sum to a 30-day figure.
func monthlyEquivalent(sum float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours()/24 + 1
	if days < 1 {
		days = 1
	}
	return sum / days * 30
}

func clampFactor(f float64, cfg *config.CalibrationConfig) float64 {
	if f < cfg.MinFactor {
		return cfg.MinFactor
	}
	if f > cfg.MaxFactor {
		return cfg.MaxFactor
	}
	return f
}

// GroupKey identifies one (industry, size bucket, channel) average.
func GroupKey(industry, sizeBucket string, channel model.Channel) string {
	return fmt.Sprintf("%s|%s|%s", industry, sizeBucket, channel)
}

func groupAverages(benchmarks []model.Benchmark, cfg *config.CalibrationConfig) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, b := range benchmarks {
		if b.CalibrationFactor == nil {
			continue
		}
		key := GroupKey(b.Industry, b.SizeBucket, b.Channel)
		sums[key] += *b.CalibrationFactor
		counts[key]++
	}

	out := make(map[string]float64, len(sums))
	for key, sum := range sums {
		out[key] = clampFactor(sum/float64(counts[key]), cfg)
	}
	return out
}
