package model

import "time"

// Benchmark is a human-entered ground-truth spend figure for one
// advertiser, channel and period. EstimatedMonthlySpend and
// CalibrationFactor are derived by the calibration pass.
type Benchmark struct {
	ID                    int64     `json:"id" db:"id"`
	AdvertiserID          int64     `json:"advertiser_id" db:"advertiser_id"`
	Channel               Channel   `json:"channel" db:"channel"`
	PeriodStart           time.Time `json:"period_start" db:"period_start"`
	PeriodEnd             time.Time `json:"period_end" db:"period_end"`
	ActualMonthlySpend    float64   `json:"actual_monthly_spend" db:"actual_monthly_spend"`
	EstimatedMonthlySpend *float64  `json:"estimated_monthly_spend,omitempty" db:"estimated_monthly_spend"`
	CalibrationFactor     *float64  `json:"calibration_factor,omitempty" db:"calibration_factor"`
	Industry              string    `json:"industry,omitempty" db:"industry"`
	SizeBucket            string    `json:"size_bucket,omitempty" db:"size_bucket"`
	Source                string    `json:"source,omitempty" db:"source"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}
