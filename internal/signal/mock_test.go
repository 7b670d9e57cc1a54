package signal

import (
	"context"
	"time"

	"github.com/adlens/spend-cli/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	scores      map[int64]*model.SignalScores
	signaled    []int64
	active      map[int64]string
	automated   map[int64]int
	human       map[int64]int
	composites  []model.SignalComposite
	channelSums map[model.Channel]float64
	sumErr      error
	upsertErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		scores:      map[int64]*model.SignalScores{},
		active:      map[int64]string{},
		automated:   map[int64]int{},
		human:       map[int64]int{},
		channelSums: map[model.Channel]float64{},
	}
}

func (m *mockStore) GetScores(_ context.Context, advertiserID int64, date time.Time) (*model.SignalScores, error) {
	if s, ok := m.scores[advertiserID]; ok {
		return s, nil
	}
	return &model.SignalScores{AdvertiserID: advertiserID, Date: date}, nil
}

func (m *mockStore) UpsertScores(_ context.Context, scores []model.SignalScores) (int64, error) {
	for i := range scores {
		s := scores[i]
		m.scores[s.AdvertiserID] = &s
	}
	return int64(len(scores)), nil
}

func (m *mockStore) ListSignaledAdvertisers(context.Context, time.Time) ([]int64, error) {
	return m.signaled, nil
}

func (m *mockStore) ActiveAdvertisers(context.Context) (map[int64]string, error) {
	return m.active, nil
}

func (m *mockStore) ObservationCounts(_ context.Context, advertiserID int64) (int, int, error) {
	return m.automated[advertiserID], m.human[advertiserID], nil
}

func (m *mockStore) UpsertComposite(_ context.Context, c *model.SignalComposite) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.composites = append(m.composites, *c)
	return nil
}

func (m *mockStore) ChannelMonthlySum(_ context.Context, channel model.Channel, _ time.Time) (float64, error) {
	if m.sumErr != nil {
		return 0, m.sumErr
	}
	return m.channelSums[channel], nil
}

// fixedSampler implements Sampler.
type fixedSampler struct {
	counts map[string]int64
	err    error
}

func (s *fixedSampler) RequestCounts(context.Context, int) (map[string]int64, error) {
	return s.counts, s.err
}
