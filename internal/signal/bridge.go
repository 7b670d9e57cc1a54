package signal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/model"
	"github.com/adlens/spend-cli/internal/spend"
)

// Sampler supplies raw low-level request counts per network from the
// independent sampling mechanism.
type Sampler interface {
	RequestCounts(ctx context.Context, days int) (map[string]int64, error)
}

// BridgeRates holds the empirically-set constants that convert raw
// request counts into spend currency. One visible impression generates
// many underlying requests; the ratio is channel-specific.
type BridgeRates struct {
	RequestToImpression map[string]float64
	Sessions            float64
	PagesPerSession     float64
	CPM                 map[string]float64
	DailyImpressions    map[string]float64
}

// DefaultBridgeRates returns the compiled-in bridge constants.
func DefaultBridgeRates() *BridgeRates {
	return &BridgeRates{
		RequestToImpression: map[string]float64{
			"search":  4,
			"display": 12,
			"social":  9,
			"video":   18,
		},
		Sessions:        1500,
		PagesPerSession: 6,
		CPM: map[string]float64{
			"search":  4200,
			"display": 1800,
			"social":  2600,
			"video":   3400,
		},
		DailyImpressions: map[string]float64{
			"search":  240_000_000,
			"display": 900_000_000,
			"social":  520_000_000,
			"video":   310_000_000,
		},
	}
}

// NetworkEstimate is the bridge's independent spend figure for one
// channel, with the cross-check against the primary engine.
type NetworkEstimate struct {
	Channel               model.Channel `json:"channel"`
	RawRequests           int64         `json:"raw_requests"`
	DailyImpressions      float64       `json:"daily_impressions"`
	ContactRate           float64       `json:"contact_rate"`
	DailyMediaCost        float64       `json:"daily_media_cost"`
	MonthlyTotalSpend     float64       `json:"monthly_total_spend"`
	DBMonthlyEstimate     float64       `json:"db_monthly_estimate"`
	RecommendedCorrection float64       `json:"recommended_correction"`
}

// BridgeResult summarizes one bridge pass.
type BridgeResult struct {
	Networks []NetworkEstimate `json:"networks"`
	Skipped  int               `json:"skipped"`
	Errors   int               `json:"errors"`
}

// EstimateFromSampling converts raw sampling request counts into
// per-network monthly spend estimates and cross-checks each against the
// primary engine's stored aggregate for the same window. The correction
// factor is surfaced for review, never applied automatically.
func EstimateFromSampling(ctx context.Context, store Store, sampler Sampler, engine *spend.Engine, rates *BridgeRates, days int) (*BridgeResult, error) {
	log := zap.L().With(zap.String("phase", "bridge"))
	if rates == nil {
		rates = DefaultBridgeRates()
	}
	if days < 1 {
		days = 1
	}

	counts, err := sampler.RequestCounts(ctx, days)
	if err != nil {
		return nil, err
	}

	log.Info("running sampling bridge", zap.Int("days", days), zap.Int("networks", len(counts)))

	since := time.Now().UTC().AddDate(0, 0, -30)
	result := &BridgeResult{}
	for _, channel := range model.AllChannels() {
		raw, ok := counts[string(channel)]
		if !ok {
			result.Skipped++
			continue
		}

		est := convertNetwork(engine, rates, channel, raw, days)

		dbMonthly, err := store.ChannelMonthlySum(ctx, channel, since)
		if err != nil {
			log.Warn("channel aggregate lookup failed",
				zap.String("channel", string(channel)), zap.Error(err))
			result.Errors++
			continue
		}
		est.DBMonthlyEstimate = dbMonthly
		est.RecommendedCorrection = 1.0
		if dbMonthly > 0 && est.MonthlyTotalSpend > 0 {
			est.RecommendedCorrection = est.MonthlyTotalSpend / dbMonthly
		}

		result.Networks = append(result.Networks, est)
		log.Info("network bridged",
			zap.String("channel", string(channel)),
			zap.Float64("monthly_total", est.MonthlyTotalSpend),
			zap.Float64("db_monthly", dbMonthly),
			zap.Float64("recommended_correction", est.RecommendedCorrection),
		)
	}
	return result, nil
}

// convertNetwork is the pure bridge arithmetic for one channel.
func convertNetwork(engine *spend.Engine, rates *BridgeRates, channel model.Channel, raw int64, days int) NetworkEstimate {
	ratio := rates.RequestToImpression[string(channel)]
	if ratio <= 0 {
		ratio = 1
	}

	dailyRequests := float64(raw) / float64(days)
	dailyImpressions := dailyRequests / ratio
	contactRate := dailyImpressions / (rates.Sessions * rates.PagesPerSession)
	dailyMediaCost := contactRate * rates.CPM[string(channel)] / 1000 * rates.DailyImpressions[string(channel)]
	monthly := engine.Uplift(channel, dailyMediaCost*30)

	return NetworkEstimate{
		Channel:           channel,
		RawRequests:       raw,
		DailyImpressions:  dailyImpressions,
		ContactRate:       contactRate,
		DailyMediaCost:    dailyMediaCost,
		MonthlyTotalSpend: monthly,
	}
}
