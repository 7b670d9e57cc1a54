package spend

import "github.com/adlens/spend-cli/internal/model"

// catalogCreative estimates spend for channels where only a catalog of
// creatives is visible, not contact frequency. Inherently less precise,
// so confidence is capped below the other models.
func (e *Engine) catalogCreative(channel model.Channel, ad AdData) Estimate {
	format := "default"
	if len(ad.Formats) > 0 {
		format = ad.Formats[0]
	}

	baseRate := e.rates.catalogBaseRate(channel, format)
	countMul := e.rates.countMultiplier(ad.CreativeCount)
	duration := e.rates.durationDiscount(ad.ActiveDays)
	formatBonus := 1.0
	if len(ad.Formats) > 1 {
		formatBonus = e.rates.MultiFormatBonus
	}

	factors := map[string]float64{
		"base_rate":          baseRate,
		"creative_count":     float64(ad.CreativeCount),
		"count_multiplier":   countMul,
		"active_days":        float64(ad.ActiveDays),
		"duration_discount":  duration,
		"multi_format_bonus": formatBonus,
	}
	calibration := e.calibrationFactor(ad.AdvertiserID, channel, factors)

	spend := baseRate * countMul * duration * formatBonus * calibration

	// More creatives mean a fuller picture, up to the ceiling.
	confidence := 0.2 + 0.04*float64(min(ad.CreativeCount, 5))
	if confidence > e.rates.CatalogConfCeiling {
		confidence = e.rates.CatalogConfCeiling
	}

	return Estimate{
		Channel:    channel,
		DailySpend: spend,
		Confidence: clamp01(confidence),
		Method:     MethodCatalogCreative,
		Factors:    factors,
	}
}
