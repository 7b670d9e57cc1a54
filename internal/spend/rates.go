package spend

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/adlens/spend-cli/internal/model"
)

// Rates holds every constant the estimation models consume. Values are
// empirically fit and revised out-of-band, so the whole table can be
// overridden from a YAML file without a rebuild. Maps are keyed by
// channel name.
type Rates struct {
	// Auction/volume model.
	BasePaidClickShare float64   `yaml:"base_paid_click_share"`
	PositionClickShare []float64 `yaml:"position_click_share"`
	DefaultTrendFactor float64   `yaml:"default_trend_factor"`
	DefaultIndustryMul float64   `yaml:"default_industry_multiplier"`

	// Frequency-reverse model. HitDailyClicks is keyed by the ad_hits
	// bucket (1..5, 5 meaning "5 or more"); the values are deliberately
	// non-proportional.
	HitDailyClicks    map[int]float64    `yaml:"hit_daily_clicks"`
	HitConfidence     map[int]float64    `yaml:"hit_confidence"`
	DefaultCPC        map[string]float64 `yaml:"default_cpc"`
	DefaultCPV        float64            `yaml:"default_cpv"`
	MarketCalibration map[string]float64 `yaml:"market_calibration"`
	InventoryWeight   map[string]float64 `yaml:"inventory_weight"`

	// Catalog-creative model.
	CatalogBaseRate    map[string]map[string]float64 `yaml:"catalog_base_rate"`
	CatalogCountTiers  []CountTier                   `yaml:"catalog_count_tiers"`
	DurationTiers      []DurationTier                `yaml:"duration_tiers"`
	MultiFormatBonus   float64                       `yaml:"multi_format_bonus"`
	CatalogConfCeiling float64                       `yaml:"catalog_confidence_ceiling"`

	// Media cost to total advertiser spend (agency markup included).
	Uplift map[string]float64 `yaml:"uplift"`
}

// CountTier maps a minimum creative count to a spend multiplier.
type CountTier struct {
	MinCount   int     `yaml:"min_count"`
	Multiplier float64 `yaml:"multiplier"`
}

// DurationTier maps a maximum active-day span to a discount multiplier.
type DurationTier struct {
	MaxDays    int     `yaml:"max_days"`
	Multiplier float64 `yaml:"multiplier"`
}

// DefaultRates returns the compiled-in rate table.
func DefaultRates() *Rates {
	return &Rates{
		BasePaidClickShare: 0.35,
		PositionClickShare: []float64{0.32, 0.18, 0.11, 0.08, 0.06, 0.05, 0.04, 0.03, 0.02, 0.02},
		DefaultTrendFactor: 1.0,
		DefaultIndustryMul: 1.0,

		HitDailyClicks: map[int]float64{1: 8, 2: 22, 3: 45, 4: 80, 5: 140},
		HitConfidence:  map[int]float64{1: 0.30, 2: 0.40, 3: 0.50, 4: 0.60, 5: 0.70},
		DefaultCPC: map[string]float64{
			"search":  700,
			"display": 350,
			"social":  450,
			"video":   0,
		},
		DefaultCPV: 35,
		MarketCalibration: map[string]float64{
			"search":  1.0,
			"display": 2.4,
			"social":  1.8,
			"video":   3.1,
		},
		InventoryWeight: map[string]float64{
			"search":  1.0,
			"display": 1.6,
			"social":  1.3,
			"video":   2.2,
		},

		CatalogBaseRate: map[string]map[string]float64{
			"social": {
				"image":   90000,
				"video":   160000,
				"default": 110000,
			},
		},
		CatalogCountTiers: []CountTier{
			{MinCount: 10, Multiplier: 3.5},
			{MinCount: 4, Multiplier: 2.4},
			{MinCount: 2, Multiplier: 1.6},
			{MinCount: 1, Multiplier: 1.0},
		},
		DurationTiers: []DurationTier{
			{MaxDays: 7, Multiplier: 1.0},
			{MaxDays: 30, Multiplier: 0.85},
			{MaxDays: 90, Multiplier: 0.7},
		},
		MultiFormatBonus:   1.15,
		CatalogConfCeiling: 0.4,

		Uplift: map[string]float64{
			"search":  1.15,
			"display": 1.2,
			"social":  1.2,
			"video":   1.25,
		},
	}
}

// LoadRates reads a YAML override file on top of the compiled defaults.
// Only the fields present in the file change; absent fields keep their
// default value. An empty path returns the defaults unchanged.
func LoadRates(path string) (*Rates, error) {
	rates := DefaultRates()
	if path == "" {
		return rates, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "spend: read rate table %s", path)
	}
	if err := yaml.Unmarshal(data, rates); err != nil {
		return nil, eris.Wrapf(err, "spend: parse rate table %s", path)
	}
	return rates, nil
}

func (r *Rates) positionShare(rank int) float64 {
	if rank < 1 || rank > len(r.PositionClickShare) {
		return r.PositionClickShare[len(r.PositionClickShare)-1]
	}
	return r.PositionClickShare[rank-1]
}

// hitBucket collapses an ad_hits count into the 1..5 lookup key.
func hitBucket(hits int) int {
	if hits < 1 {
		return 1
	}
	if hits > 5 {
		return 5
	}
	return hits
}

func (r *Rates) marketCalibration(ch model.Channel) float64 {
	if f, ok := r.MarketCalibration[string(ch)]; ok {
		return f
	}
	return 1.0
}

func (r *Rates) inventoryWeight(ch model.Channel) float64 {
	if f, ok := r.InventoryWeight[string(ch)]; ok {
		return f
	}
	return 1.0
}

func (r *Rates) defaultCPC(ch model.Channel) float64 {
	return r.DefaultCPC[string(ch)]
}

func (r *Rates) uplift(ch model.Channel) float64 {
	if f, ok := r.Uplift[string(ch)]; ok {
		return f
	}
	return 1.0
}

func (r *Rates) catalogBaseRate(ch model.Channel, format string) float64 {
	table, ok := r.CatalogBaseRate[string(ch)]
	if !ok {
		return 0
	}
	if rate, ok := table[format]; ok {
		return rate
	}
	return table["default"]
}

func (r *Rates) countMultiplier(count int) float64 {
	for _, tier := range r.CatalogCountTiers {
		if count >= tier.MinCount {
			return tier.Multiplier
		}
	}
	return 1.0
}

func (r *Rates) durationDiscount(activeDays int) float64 {
	for _, tier := range r.DurationTiers {
		if activeDays <= tier.MaxDays {
			return tier.Multiplier
		}
	}
	if len(r.DurationTiers) == 0 {
		return 1.0
	}
	// Beyond the last tier the last discount keeps applying.
	return r.DurationTiers[len(r.DurationTiers)-1].Multiplier
}
