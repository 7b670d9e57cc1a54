package model

import "time"

// Observation is a deduplicated canonical sighting ("ad detail"). The
// promote pass is the only writer of SeenCount and LastSeen; SeenCount
// only increases. Invariant: LastSeen >= FirstSeen.
type Observation struct {
	ID             int64     `json:"id" db:"id"`
	AdvertiserID   *int64    `json:"advertiser_id,omitempty" db:"advertiser_id"`
	Channel        Channel   `json:"channel" db:"channel"`
	CreativeHash   string    `json:"creative_hash" db:"creative_hash"`
	AdvertiserName *string   `json:"advertiser_name,omitempty" db:"advertiser_name"`
	AdText         string    `json:"ad_text,omitempty" db:"ad_text"`
	LandingURL     string    `json:"landing_url,omitempty" db:"landing_url"`
	AdType         string    `json:"ad_type,omitempty" db:"ad_type"`
	CreativeRef    *string   `json:"creative_ref,omitempty" db:"creative_ref"`
	FirstSeen      time.Time `json:"first_seen" db:"first_seen"`
	LastSeen       time.Time `json:"last_seen" db:"last_seen"`
	SeenCount      int       `json:"seen_count" db:"seen_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Advertiser is the stable identity anchor. Campaigns and observations
// reference it but never own it.
type Advertiser struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Website    string    `json:"website,omitempty" db:"website"`
	Social     string    `json:"social,omitempty" db:"social"`
	Industry   string    `json:"industry,omitempty" db:"industry"`
	SizeBucket string    `json:"size_bucket,omitempty" db:"size_bucket"`
	InHouse    bool      `json:"in_house" db:"in_house"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
