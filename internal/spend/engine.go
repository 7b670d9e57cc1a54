// Package spend implements the multi-model daily spend estimation engine.
// Every model records the full set of multipliers and inputs it consumed
// in the Factors map; calibration and debugging both depend on it.
package spend

import (
	"github.com/adlens/spend-cli/internal/model"
)

// Method tags identify which model produced an estimate.
const (
	MethodInHouseZero      = "inhouse_zero"
	MethodAuctionVolume    = "auction_volume"
	MethodFrequencyReverse = "frequency_reverse"
	MethodCatalogCreative  = "catalog_creative"
)

// AdData carries everything known about one campaign's ads on a channel.
// Zero values mean "unknown"; the dispatcher picks the model that can
// work with what is present.
type AdData struct {
	AdvertiserID  int64
	InHouse       bool
	CPC           float64
	CPV           float64
	MonthlyVolume float64
	Rank          int
	TrendFactor   float64
	IndustryMul   float64
	CreativeCount int
	Formats       []string
	ActiveDays    int
}

// FrequencyData is the contact-frequency signal for one day.
type FrequencyData struct {
	AdHits int
}

// Estimate is one day's spend figure with its audit trail.
type Estimate struct {
	Channel    model.Channel
	DailySpend float64
	Confidence float64
	Method     string
	Factors    map[string]float64
}

// Calibrator supplies the ground-truth correction factor for an
// advertiser/channel pair. A nil Calibrator means neutral 1.0.
type Calibrator interface {
	Factor(advertiserID int64, channel model.Channel) float64
}

// Engine dispatches to the estimation model a channel's data supports.
type Engine struct {
	rates      *Rates
	calibrator Calibrator
}

// NewEngine creates an engine over a rate table. calibrator may be nil.
func NewEngine(rates *Rates, calibrator Calibrator) *Engine {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Engine{rates: rates, calibrator: calibrator}
}

// Estimate produces one day's spend estimate. Dispatch order: the
// in-house short circuit always wins; the auction model fires when CPC
// and search volume are both known; catalog channels use the
// catalog-creative model; everything else falls back to
// frequency-reverse.
func (e *Engine) Estimate(channel model.Channel, ad AdData, freq FrequencyData) Estimate {
	if ad.InHouse {
		return Estimate{
			Channel:    channel,
			DailySpend: 0,
			Confidence: 0.9,
			Method:     MethodInHouseZero,
			Factors:    map[string]float64{"in_house": 1},
		}
	}

	if channel == model.ChannelSearch && ad.CPC > 0 && ad.MonthlyVolume > 0 {
		return e.auctionVolume(channel, ad)
	}

	if channel.IsCatalog() && ad.CreativeCount > 0 {
		return e.catalogCreative(channel, ad)
	}

	return e.frequencyReverse(channel, ad, freq)
}

// calibrationFactor resolves the ground-truth correction for a result and
// records it in the factors map.
func (e *Engine) calibrationFactor(advertiserID int64, channel model.Channel, factors map[string]float64) float64 {
	factor := 1.0
	if e.calibrator != nil && advertiserID != 0 {
		factor = e.calibrator.Factor(advertiserID, channel)
	}
	factors["calibration_factor"] = factor
	return factor
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
