package model

import "time"

// SightingStatus is the quality status of a raw sighting in the staging
// table. Sightings are append-only: the wash and promote passes are the
// only writers after ingestion.
type SightingStatus string

const (
	SightingPending    SightingStatus = "pending"
	SightingApproved   SightingStatus = "approved"
	SightingQuarantine SightingStatus = "quarantine"
	SightingRejected   SightingStatus = "rejected"
	SightingDeduped    SightingStatus = "deduped"
)

// RawSighting is one crawl-time observation of an ad, as delivered by the
// crawling collaborator. Known fields are normalized; anything else the
// channel produced is preserved opaquely in Extra.
type RawSighting struct {
	ID             int64          `json:"id" db:"id"`
	BatchID        string         `json:"batch_id" db:"batch_id"`
	Channel        Channel        `json:"channel" db:"channel"`
	AdvertiserName *string        `json:"advertiser_name,omitempty" db:"advertiser_name"`
	AdText         string         `json:"ad_text" db:"ad_text"`
	Description    string         `json:"description,omitempty" db:"description"`
	Position       *int           `json:"position,omitempty" db:"position"`
	LandingURL     string         `json:"landing_url,omitempty" db:"landing_url"`
	DisplayURL     string         `json:"display_url,omitempty" db:"display_url"`
	AdType         string         `json:"ad_type,omitempty" db:"ad_type"`
	Placement      string         `json:"placement,omitempty" db:"placement"`
	CreativeRef    *string        `json:"creative_ref,omitempty" db:"creative_ref"`
	Extra          map[string]any `json:"extra,omitempty" db:"extra"`
	CapturedAt     time.Time      `json:"captured_at" db:"captured_at"`
	Status         SightingStatus `json:"status" db:"status"`
	StatusReason   string         `json:"status_reason,omitempty" db:"status_reason"`
	WashScore      *float64       `json:"wash_score,omitempty" db:"wash_score"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
