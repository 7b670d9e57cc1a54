package spend

import "github.com/adlens/spend-cli/internal/model"

// Uplift converts a media-cost figure (platform-retained revenue) into a
// total advertiser spend figure including agency markup. The multiplier
// is channel-specific and empirically fit.
func (e *Engine) Uplift(channel model.Channel, mediaCost float64) float64 {
	return mediaCost * e.rates.uplift(channel)
}

// UpliftFactor exposes the raw multiplier for callers that record it.
func (e *Engine) UpliftFactor(channel model.Channel) float64 {
	return e.rates.uplift(channel)
}
