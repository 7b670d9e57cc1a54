package spend

import "github.com/adlens/spend-cli/internal/model"

// frequencyReverse estimates spend from the discrete contact-frequency
// bucket. The bucket-to-clicks lookup is deliberately non-proportional:
// seeing an ad twice implies more than twice the spend of seeing it
// once. Confidence grows monotonically with the bucket.
func (e *Engine) frequencyReverse(channel model.Channel, ad AdData, freq FrequencyData) Estimate {
	// No observed contact means no spend evidence for the day.
	if freq.AdHits < 1 {
		return Estimate{
			Channel: channel,
			Method:  MethodFrequencyReverse,
			Factors: map[string]float64{"ad_hits": 0},
		}
	}

	bucket := hitBucket(freq.AdHits)
	dailyClicks := e.rates.HitDailyClicks[bucket]

	unitCost := ad.CPC
	unitName := "cpc"
	if channel.UsesCPV() {
		unitCost = ad.CPV
		unitName = "cpv"
		if unitCost <= 0 {
			unitCost = e.rates.DefaultCPV
		}
	} else if unitCost <= 0 {
		unitCost = e.rates.defaultCPC(channel)
	}

	market := e.rates.marketCalibration(channel)
	inventory := e.rates.inventoryWeight(channel)
	uplift := e.rates.uplift(channel)

	factors := map[string]float64{
		"ad_hits":            float64(freq.AdHits),
		"hit_bucket":         float64(bucket),
		"daily_clicks":       dailyClicks,
		unitName:             unitCost,
		"market_calibration": market,
		"inventory_weight":   inventory,
		"uplift":             uplift,
	}
	calibration := e.calibrationFactor(ad.AdvertiserID, channel, factors)

	mediaCost := dailyClicks * unitCost * market * inventory
	spend := mediaCost * uplift * calibration

	return Estimate{
		Channel:    channel,
		DailySpend: spend,
		Confidence: clamp01(e.rates.HitConfidence[bucket]),
		Method:     MethodFrequencyReverse,
		Factors:    factors,
	}
}
