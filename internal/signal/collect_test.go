package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/model"
)

type fixedTrends struct {
	scores map[string]float64
	err    error
	terms  []string
}

func (f *fixedTrends) Interest(_ context.Context, terms []string) (map[string]float64, error) {
	f.terms = terms
	return f.scores, f.err
}

func TestCollectTrendScores(t *testing.T) {
	store := newMockStore()
	store.active = map[int64]string{7: "Acme Plumbing", 8: "Northside Dental"}
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	src := &fixedTrends{scores: map[string]float64{
		"acme plumbing":    73.5,
		"northside dental": 12,
	}}

	result, err := CollectTrendScores(context.Background(), store, src, date)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Advertisers)
	assert.Equal(t, 2, result.Updated)
	assert.Zero(t, result.Skipped)

	// Names are lowercased and batched in one call.
	assert.Equal(t, []string{"acme plumbing", "northside dental"}, src.terms)

	require.NotNil(t, store.scores[7].Trend)
	assert.InDelta(t, 73.5, *store.scores[7].Trend, 0.001)
}

func TestCollectTrendScores_PreservesOtherScores(t *testing.T) {
	store := newMockStore()
	store.active = map[int64]string{7: "acme"}
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	store.scores[7] = &model.SignalScores{
		AdvertiserID: 7, Date: date,
		Commerce: scorePtr(55),
	}

	src := &fixedTrends{scores: map[string]float64{"acme": 80}}

	_, err := CollectTrendScores(context.Background(), store, src, date)
	require.NoError(t, err)

	require.NotNil(t, store.scores[7].Commerce)
	assert.Equal(t, 55.0, *store.scores[7].Commerce)
	require.NotNil(t, store.scores[7].Trend)
	assert.Equal(t, 80.0, *store.scores[7].Trend)
}

func TestCollectTrendScores_UnknownNameSkipped(t *testing.T) {
	store := newMockStore()
	store.active = map[int64]string{7: "acme", 8: "obscure shop"}

	src := &fixedTrends{scores: map[string]float64{"acme": 40}}

	result, err := CollectTrendScores(context.Background(), store, src, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}

func TestCollectTrendScores_IndexClamped(t *testing.T) {
	store := newMockStore()
	store.active = map[int64]string{7: "acme"}

	src := &fixedTrends{scores: map[string]float64{"acme": 140}}

	_, err := CollectTrendScores(context.Background(), store, src, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, *store.scores[7].Trend)
}

func TestCollectTrendScores_SourceError(t *testing.T) {
	store := newMockStore()
	store.active = map[int64]string{7: "acme"}

	src := &fixedTrends{err: assert.AnError}

	_, err := CollectTrendScores(context.Background(), store, src, time.Now())
	require.Error(t, err)
}

func TestCollectTrendScores_NoActiveAdvertisers(t *testing.T) {
	store := newMockStore()
	src := &fixedTrends{}

	result, err := CollectTrendScores(context.Background(), store, src, time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.Advertisers)
	assert.Nil(t, src.terms)
}
