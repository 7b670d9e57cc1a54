package calibrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/model"
)

func factorPtr(f float64) *float64 { return &f }

func lookupFixture() *Table {
	benchmarks := []model.Benchmark{
		// Exact: advertiser 1 on search.
		{AdvertiserID: 1, Channel: model.ChannelSearch, Industry: "plumbing",
			SizeBucket: "small", CalibrationFactor: factorPtr(1.8)},
		// Group fodder: plumbing/small on display.
		{AdvertiserID: 2, Channel: model.ChannelDisplay, Industry: "plumbing",
			SizeBucket: "small", CalibrationFactor: factorPtr(1.2)},
		// Size-only fodder: another industry, same size.
		{AdvertiserID: 3, Channel: model.ChannelVideo, Industry: "retail",
			SizeBucket: "small", CalibrationFactor: factorPtr(0.6)},
		// Uncomputed rows never contribute.
		{AdvertiserID: 4, Channel: model.ChannelSearch, Industry: "plumbing",
			SizeBucket: "small"},
	}
	traits := map[int64]AdvertiserTraits{
		1: {Industry: "plumbing", SizeBucket: "small"},
		5: {Industry: "plumbing", SizeBucket: "small"},
		6: {Industry: "retail", SizeBucket: "small"},
		7: {SizeBucket: "small"},
	}
	return BuildTable(benchmarks, traits)
}

func TestFactor_ExactBeatsGroups(t *testing.T) {
	table := lookupFixture()
	assert.InDelta(t, 1.8, table.Factor(1, model.ChannelSearch), 0.001)
}

func TestFactor_IndustrySizeChannelGroup(t *testing.T) {
	table := lookupFixture()
	// Advertiser 5 has no benchmark of its own; plumbing/small/display
	// has one at 1.2.
	assert.InDelta(t, 1.2, table.Factor(5, model.ChannelDisplay), 0.001)
}

func TestFactor_IndustrySizeFallback(t *testing.T) {
	table := lookupFixture()
	// No plumbing/small/video group; the channel-agnostic
	// plumbing/small average is (1.8 + 1.2) / 2.
	assert.InDelta(t, 1.5, table.Factor(5, model.ChannelVideo), 0.001)
}

func TestFactor_SizeOnlyFallback(t *testing.T) {
	table := lookupFixture()
	// Advertiser 7 has a size bucket but no industry; the "small"
	// average is (1.8 + 1.2 + 0.6) / 3.
	assert.InDelta(t, 1.2, table.Factor(7, model.ChannelSearch), 0.001)
}

func TestFactor_NeutralDefault(t *testing.T) {
	table := lookupFixture()
	// Unknown advertiser.
	assert.Equal(t, 1.0, table.Factor(99, model.ChannelSearch))
}

func TestLoadTable(t *testing.T) {
	store := newMockStore()
	store.computed = []model.Benchmark{
		{AdvertiserID: 1, Channel: model.ChannelSearch, CalibrationFactor: factorPtr(2.0)},
	}

	table, err := LoadTable(context.Background(), store)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, table.Factor(1, model.ChannelSearch), 0.001)
}
