package model

import "time"

// SignalScores carries the four independently-collected sub-scores for
// one advertiser and day, each normalized to [0,100]. A nil score means
// the source had no data for the period and is treated as zero.
type SignalScores struct {
	AdvertiserID int64     `json:"advertiser_id" db:"advertiser_id"`
	Date         time.Time `json:"date" db:"date"`
	Commerce     *float64  `json:"commerce,omitempty" db:"commerce_score"`
	Trend        *float64  `json:"trend,omitempty" db:"trend_score"`
	Creative     *float64  `json:"creative,omitempty" db:"creative_score"`
	Sampling     *float64  `json:"sampling,omitempty" db:"sampling_score"`
}

// SignalComposite is the fused market-activity score for one advertiser
// and day, with the derived spend multiplier.
type SignalComposite struct {
	ID              int64     `json:"id" db:"id"`
	AdvertiserID    int64     `json:"advertiser_id" db:"advertiser_id"`
	Date            time.Time `json:"date" db:"date"`
	CommerceScore   float64   `json:"commerce_score" db:"commerce_score"`
	TrendScore      float64   `json:"trend_score" db:"trend_score"`
	CreativeScore   float64   `json:"creative_score" db:"creative_score"`
	SamplingScore   float64   `json:"sampling_score" db:"sampling_score"`
	PanelRatio      float64   `json:"panel_ratio" db:"panel_ratio"`
	CompositeScore  float64   `json:"composite_score" db:"composite_score"`
	SpendMultiplier float64   `json:"spend_multiplier" db:"spend_multiplier"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
