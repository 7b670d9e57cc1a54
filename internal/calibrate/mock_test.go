package calibrate

import (
	"context"
	"time"

	"github.com/adlens/spend-cli/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	uncomputed []model.Benchmark
	computed   []model.Benchmark
	sums       map[int64]float64 // advertiser id -> period sum
	sumErr     error
	factors    map[int64][2]float64 // benchmark id -> (estimated monthly, factor)
	upserted   []model.Benchmark
	traits     map[int64]AdvertiserTraits
}

func newMockStore() *mockStore {
	return &mockStore{
		sums:    map[int64]float64{},
		factors: map[int64][2]float64{},
		traits:  map[int64]AdvertiserTraits{},
	}
}

func (m *mockStore) ListUncomputed(context.Context) ([]model.Benchmark, error) {
	return m.uncomputed, nil
}

func (m *mockStore) ListComputed(context.Context) ([]model.Benchmark, error) {
	return m.computed, nil
}

func (m *mockStore) SumEstimates(_ context.Context, advertiserID int64, _ model.Channel, _, _ time.Time) (float64, error) {
	if m.sumErr != nil {
		return 0, m.sumErr
	}
	return m.sums[advertiserID], nil
}

func (m *mockStore) SetBenchmarkFactor(_ context.Context, id int64, estimatedMonthly, factor float64) error {
	m.factors[id] = [2]float64{estimatedMonthly, factor}
	return nil
}

func (m *mockStore) UpsertBenchmarks(_ context.Context, benchmarks []model.Benchmark) (int64, error) {
	m.upserted = append(m.upserted, benchmarks...)
	return int64(len(benchmarks)), nil
}

func (m *mockStore) AdvertiserTraits(context.Context) (map[int64]AdvertiserTraits, error) {
	return m.traits, nil
}
