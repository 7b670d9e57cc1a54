package campaign

import (
	"context"

	"github.com/adlens/spend-cli/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	observations []model.Observation
	inHouse      map[int64]bool

	scopeDeletes int
	campaigns    []model.Campaign
	estimates    []model.SpendEstimate
	nextID       int64

	labeled          []model.Campaign
	updated          []model.Campaign
	reassigned       [][2]int64
	deletedCampaigns []int64
	reassignErr      error
}

func newMockStore() *mockStore {
	return &mockStore{inHouse: map[int64]bool{}, nextID: 100}
}

func (m *mockStore) DeleteScope(_ context.Context, channels []model.Channel, advertiserIDs []int64) error {
	m.scopeDeletes++
	skip := map[model.Channel]bool{}
	for _, ch := range channels {
		skip[ch] = true
	}
	advOK := func(id int64) bool {
		if len(advertiserIDs) == 0 {
			return true
		}
		for _, a := range advertiserIDs {
			if a == id {
				return true
			}
		}
		return false
	}

	removed := map[int64]bool{}
	var keep []model.Campaign
	for _, c := range m.campaigns {
		if skip[c.Channel] && advOK(c.AdvertiserID) {
			removed[c.ID] = true
			continue
		}
		keep = append(keep, c)
	}
	m.campaigns = keep

	var keepEst []model.SpendEstimate
	for _, e := range m.estimates {
		if !removed[e.CampaignID] {
			keepEst = append(keepEst, e)
		}
	}
	m.estimates = keepEst
	return nil
}

func (m *mockStore) ListObservations(_ context.Context, channels []model.Channel, advertiserIDs []int64) ([]model.Observation, error) {
	ok := map[model.Channel]bool{}
	for _, ch := range channels {
		ok[ch] = true
	}
	var out []model.Observation
	for _, o := range m.observations {
		if !ok[o.Channel] {
			continue
		}
		if len(advertiserIDs) > 0 {
			match := false
			for _, a := range advertiserIDs {
				if o.AdvertiserID != nil && *o.AdvertiserID == a {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockStore) InHouseAdvertisers(context.Context) (map[int64]bool, error) {
	return m.inHouse, nil
}

func (m *mockStore) InsertCampaign(_ context.Context, camp *model.Campaign) error {
	m.nextID++
	camp.ID = m.nextID
	m.campaigns = append(m.campaigns, *camp)
	return nil
}

func (m *mockStore) InsertEstimates(_ context.Context, estimates []model.SpendEstimate) (int64, error) {
	m.estimates = append(m.estimates, estimates...)
	return int64(len(estimates)), nil
}

func (m *mockStore) ListLabeled(context.Context) ([]model.Campaign, error) {
	return m.labeled, nil
}

func (m *mockStore) UpdateMergedCampaign(_ context.Context, camp *model.Campaign) error {
	m.updated = append(m.updated, *camp)
	return nil
}

func (m *mockStore) ReassignEstimates(_ context.Context, from, to int64) error {
	if m.reassignErr != nil {
		return m.reassignErr
	}
	m.reassigned = append(m.reassigned, [2]int64{from, to})
	return nil
}

func (m *mockStore) DeleteCampaign(_ context.Context, id int64) error {
	m.deletedCampaigns = append(m.deletedCampaigns, id)
	return nil
}
