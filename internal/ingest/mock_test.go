package ingest

import (
	"context"
	"time"

	"github.com/adlens/spend-cli/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	sightings     []model.RawSighting
	unpromoted    []model.RawSighting
	observations  []model.Observation
	advertisers   []model.Advertiser
	nextObsID     int64
	nextAdvID     int64
	washVerdicts  map[int64]model.SightingStatus
	promotedIDs   map[int64]model.SightingStatus
	touched       map[int64]int
	touchedTimes  map[int64]time.Time
	enriched      map[int64][2]string
	inserted      []model.RawSighting
	reviewErr     error
	reviewedIDs   map[int64]model.SightingStatus
}

func newMockStore() *mockStore {
	return &mockStore{
		washVerdicts: make(map[int64]model.SightingStatus),
		promotedIDs:  make(map[int64]model.SightingStatus),
		touched:      make(map[int64]int),
		touchedTimes: make(map[int64]time.Time),
		enriched:     make(map[int64][2]string),
		reviewedIDs:  make(map[int64]model.SightingStatus),
		nextObsID:    100,
		nextAdvID:    500,
	}
}

func (m *mockStore) BulkInsertSightings(_ context.Context, sightings []model.RawSighting) (int64, error) {
	m.inserted = append(m.inserted, sightings...)
	return int64(len(sightings)), nil
}

func (m *mockStore) ListSightings(_ context.Context, status model.SightingStatus, _ int) ([]model.RawSighting, error) {
	var out []model.RawSighting
	for _, s := range m.sightings {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) ListUnpromoted(_ context.Context, _ int) ([]model.RawSighting, error) {
	return m.unpromoted, nil
}

func (m *mockStore) UpdateSightingWash(_ context.Context, id int64, status model.SightingStatus, _ string, _ float64) error {
	m.washVerdicts[id] = status
	return nil
}

func (m *mockStore) MarkSightingPromoted(_ context.Context, id int64, status model.SightingStatus) error {
	m.promotedIDs[id] = status
	return nil
}

func (m *mockStore) ReviewSighting(_ context.Context, id int64, status model.SightingStatus) error {
	if m.reviewErr != nil {
		return m.reviewErr
	}
	m.reviewedIDs[id] = status
	return nil
}

func (m *mockStore) GetObservationByHash(_ context.Context, channel model.Channel, hash string) (*model.Observation, error) {
	for i := range m.observations {
		o := &m.observations[i]
		if o.Channel == channel && o.CreativeHash == hash {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindObservationByTuple(_ context.Context, channel model.Channel, name *string, text, url string) (*model.Observation, error) {
	for i := range m.observations {
		o := &m.observations[i]
		if o.Channel != channel {
			continue
		}
		var oName *string
		if o.AdvertiserName != nil {
			n := NormalizeName(*o.AdvertiserName)
			oName = &n
		}
		if !strPtrEqual(oName, name) {
			continue
		}
		if normalizeText(o.AdText) == text && normalizeURL(o.LandingURL) == url {
			return o, nil
		}
	}
	return nil, nil
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *mockStore) TouchObservation(_ context.Context, id int64, seenAt time.Time) error {
	m.touched[id]++
	m.touchedTimes[id] = seenAt
	for i := range m.observations {
		o := &m.observations[i]
		if o.ID == id {
			o.SeenCount++
			if seenAt.After(o.LastSeen) {
				o.LastSeen = seenAt
			}
			if seenAt.Before(o.FirstSeen) {
				o.FirstSeen = seenAt
			}
		}
	}
	return nil
}

func (m *mockStore) CreateObservation(_ context.Context, obs *model.Observation) error {
	m.nextObsID++
	obs.ID = m.nextObsID
	m.observations = append(m.observations, *obs)
	return nil
}

func (m *mockStore) GetAdvertiserByName(_ context.Context, name string) (*model.Advertiser, error) {
	for i := range m.advertisers {
		if m.advertisers[i].Name == name {
			return &m.advertisers[i], nil
		}
	}
	return nil, nil
}

func (m *mockStore) CreateAdvertiser(_ context.Context, adv *model.Advertiser) error {
	m.nextAdvID++
	adv.ID = m.nextAdvID
	m.advertisers = append(m.advertisers, *adv)
	return nil
}

func (m *mockStore) UpdateAdvertiserEnrichment(_ context.Context, id int64, website, social string) error {
	m.enriched[id] = [2]string{website, social}
	return nil
}

// mockEnricher implements Enricher for testing.
type mockEnricher struct {
	enrichment *Enrichment
	err        error
	calls      int
}

func (m *mockEnricher) Enrich(_ context.Context, _ string) (*Enrichment, error) {
	m.calls++
	return m.enrichment, m.err
}
