package spend

import "github.com/adlens/spend-cli/internal/model"

// auctionVolume estimates spend from a known CPC and monthly search
// volume. Confidence grows with volume and with better (lower) rank.
func (e *Engine) auctionVolume(channel model.Channel, ad AdData) Estimate {
	trend := ad.TrendFactor
	if trend <= 0 {
		trend = e.rates.DefaultTrendFactor
	}
	industry := ad.IndustryMul
	if industry <= 0 {
		industry = e.rates.DefaultIndustryMul
	}
	rank := ad.Rank
	if rank < 1 {
		rank = 1
	}

	dailySearch := ad.MonthlyVolume / 30
	paidClickPool := dailySearch * e.rates.BasePaidClickShare
	positionShare := e.rates.positionShare(rank)
	estClicks := paidClickPool * positionShare * trend

	factors := map[string]float64{
		"monthly_volume":        ad.MonthlyVolume,
		"daily_search":          dailySearch,
		"base_paid_click_share": e.rates.BasePaidClickShare,
		"position_click_share":  positionShare,
		"rank":                  float64(rank),
		"trend_factor":          trend,
		"est_clicks":            estClicks,
		"cpc":                   ad.CPC,
		"industry_multiplier":   industry,
	}
	calibration := e.calibrationFactor(ad.AdvertiserID, channel, factors)

	spend := estClicks * ad.CPC * industry * calibration

	// Volume contributes up to 0.3; rank 1 contributes 0.2, decaying to
	// zero past rank 10. Base 0.4 keeps any auction hit above the
	// frequency model's low buckets.
	volumeTerm := ad.MonthlyVolume / 1_000_000 * 0.3
	if volumeTerm > 0.3 {
		volumeTerm = 0.3
	}
	rankTerm := float64(11-rank) / 10 * 0.2
	if rankTerm < 0 {
		rankTerm = 0
	}
	confidence := clamp01(0.4 + volumeTerm + rankTerm)
	if confidence > 0.85 {
		confidence = 0.85
	}

	return Estimate{
		Channel:    channel,
		DailySpend: spend,
		Confidence: confidence,
		Method:     MethodAuctionVolume,
		Factors:    factors,
	}
}
