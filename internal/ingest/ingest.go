// Package ingest implements the dedup and promotion gate: washing raw
// sightings into quality states and promoting approved sightings into
// canonical observations without double counting.
package ingest

// WashResult summarizes a wash pass over pending sightings.
type WashResult struct {
	Processed   int `json:"processed"`
	Approved    int `json:"approved"`
	Quarantined int `json:"quarantined"`
	Rejected    int `json:"rejected"`
	Errors      int `json:"errors"`
}

// PromoteResult summarizes a promote pass over approved sightings.
type PromoteResult struct {
	Processed          int `json:"processed"`
	Promoted           int `json:"promoted"`
	Deduped            int `json:"deduped"`
	AdvertisersCreated int `json:"advertisers_created"`
	Skipped            int `json:"skipped"`
	Errors             int `json:"errors"`
}

// ImportResult summarizes an import of a crawler capture file.
type ImportResult struct {
	Read     int   `json:"read"`
	Inserted int64 `json:"inserted"`
	Skipped  int   `json:"skipped"`
}
