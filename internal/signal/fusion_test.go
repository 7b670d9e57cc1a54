package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/config"
	"github.com/adlens/spend-cli/internal/model"
)

func fusionCfg() *config.FusionConfig {
	return &config.FusionConfig{
		CommerceWeight:  0.25,
		TrendWeight:     0.25,
		CreativeWeight:  0.30,
		SamplingWeight:  0.20,
		PanelSilentBump: 1.1,
	}
}

func scorePtr(f float64) *float64 { return &f }

func TestCompose_WeightedSum(t *testing.T) {
	scores := &model.SignalScores{
		Commerce: scorePtr(80),
		Trend:    scorePtr(60),
		Creative: scorePtr(40),
		Sampling: scorePtr(100),
	}

	c := Compose(fusionCfg(), scores, 0, 0)

	// 80*0.25 + 60*0.25 + 40*0.30 + 100*0.20 = 67
	assert.InDelta(t, 67, c.CompositeScore, 0.001)
	assert.Equal(t, 1.0, c.PanelRatio)
}

func TestCompose_MissingSignalsDefaultZero(t *testing.T) {
	c := Compose(fusionCfg(), &model.SignalScores{Trend: scorePtr(100)}, 0, 0)

	assert.Zero(t, c.CommerceScore)
	assert.Zero(t, c.CreativeScore)
	assert.Zero(t, c.SamplingScore)
	assert.InDelta(t, 25, c.CompositeScore, 0.001)
}

func TestCompose_AllMissing(t *testing.T) {
	c := Compose(fusionCfg(), &model.SignalScores{}, 0, 0)
	assert.Zero(t, c.CompositeScore)
	assert.InDelta(t, 0.7, c.SpendMultiplier, 0.001)
}

func TestCompose_PanelRatio(t *testing.T) {
	scores := &model.SignalScores{Commerce: scorePtr(100), Trend: scorePtr(100),
		Creative: scorePtr(100), Sampling: scorePtr(100)}

	// No human data: neutral.
	assert.Equal(t, 1.0, Compose(fusionCfg(), scores, 50, 0).PanelRatio)
	// Human data, silent automated collection: fixed nudge.
	assert.Equal(t, 1.1, Compose(fusionCfg(), scores, 0, 3).PanelRatio)
	// Both present: the observed ratio.
	assert.InDelta(t, 1.2, Compose(fusionCfg(), scores, 10, 12).PanelRatio, 0.001)
	// Extreme ratios clamp.
	assert.Equal(t, panelRatioMax, Compose(fusionCfg(), scores, 1, 1000).PanelRatio)
	assert.Equal(t, panelRatioMin, Compose(fusionCfg(), scores, 1000, 1).PanelRatio)
}

func TestCompose_ClampsComposite(t *testing.T) {
	scores := &model.SignalScores{Commerce: scorePtr(100), Trend: scorePtr(100),
		Creative: scorePtr(100), Sampling: scorePtr(100)}

	c := Compose(fusionCfg(), scores, 10, 12) // ratio 1.2 pushes past 100
	assert.Equal(t, 100.0, c.CompositeScore)
	assert.Equal(t, 1.5, c.SpendMultiplier)
}

func TestSpendMultiplier_Anchors(t *testing.T) {
	assert.InDelta(t, 0.7, SpendMultiplier(0), 0.001)
	assert.InDelta(t, 1.0, SpendMultiplier(50), 0.001)
	assert.InDelta(t, 1.5, SpendMultiplier(100), 0.001)
	// Piecewise-linear between anchors.
	assert.InDelta(t, 0.85, SpendMultiplier(25), 0.001)
	assert.InDelta(t, 1.25, SpendMultiplier(75), 0.001)
}

func TestSpendMultiplier_Bounds(t *testing.T) {
	for score := -20.0; score <= 140; score += 10 {
		m := SpendMultiplier(score)
		assert.GreaterOrEqual(t, m, 0.7)
		assert.LessOrEqual(t, m, 1.5)
	}
}

func TestFuse_PersistsComposite(t *testing.T) {
	store := newMockStore()
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	store.scores[7] = &model.SignalScores{
		AdvertiserID: 7, Date: date,
		Commerce: scorePtr(80), Trend: scorePtr(60),
		Creative: scorePtr(40), Sampling: scorePtr(100),
	}

	c, err := Fuse(context.Background(), store, fusionCfg(), 7, date)
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.AdvertiserID)
	assert.Equal(t, date, c.Date)
	require.Len(t, store.composites, 1)
	assert.InDelta(t, 67, store.composites[0].CompositeScore, 0.001)
}

func TestRunFuse_ErrorIsolation(t *testing.T) {
	store := newMockStore()
	store.signaled = []int64{7, 8}
	store.upsertErr = assert.AnError

	result, err := RunFuse(context.Background(), store, fusionCfg(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, 0, result.Fused)
}
