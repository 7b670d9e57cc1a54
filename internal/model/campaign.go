package model

import "time"

// CampaignStatus marks whether a campaign's activity window is current.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign aggregates observations for one advertiser on one channel.
// Campaigns are rebuilt wholesale each pass, never patched in place, so
// reruns without new data reproduce identical totals.
type Campaign struct {
	ID            int64          `json:"id" db:"id"`
	AdvertiserID  int64          `json:"advertiser_id" db:"advertiser_id"`
	Channel       Channel        `json:"channel" db:"channel"`
	ProductLabel  *string        `json:"product_label,omitempty" db:"product_label"`
	FirstSeen     time.Time      `json:"first_seen" db:"first_seen"`
	LastSeen      time.Time      `json:"last_seen" db:"last_seen"`
	AdOccurrences int            `json:"ad_occurrences" db:"ad_occurrences"`
	SnapshotCount int            `json:"snapshot_count" db:"snapshot_count"`
	Status        CampaignStatus `json:"status" db:"status"`
	TotalEstSpend float64        `json:"total_est_spend" db:"total_est_spend"`
	CreativeIDs   []string       `json:"creative_ids,omitempty" db:"creative_ids"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// SpendEstimate is one estimated-spend row per (campaign, day). Rows for a
// campaign are deleted and reinserted atomically on every rebuild pass;
// partial updates are disallowed.
type SpendEstimate struct {
	ID         int64              `json:"id" db:"id"`
	CampaignID int64              `json:"campaign_id" db:"campaign_id"`
	Date       time.Time          `json:"date" db:"date"`
	Channel    Channel            `json:"channel" db:"channel"`
	DailySpend float64            `json:"est_daily_spend" db:"est_daily_spend"`
	Confidence float64            `json:"confidence" db:"confidence"`
	Method     string             `json:"calculation_method" db:"calculation_method"`
	Factors    map[string]float64 `json:"factors" db:"factors"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}
