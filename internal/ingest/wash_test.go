package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/config"
	"github.com/adlens/spend-cli/internal/model"
)

func washConfig() *config.WashConfig {
	return &config.WashConfig{
		RejectThreshold:     0.3,
		QuarantineThreshold: 0.6,
		MaxTextBytes:        8192,
		MinTargetTextRatio:  0.3,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func fullSighting() *model.RawSighting {
	return &model.RawSighting{
		Channel:        model.ChannelSearch,
		AdvertiserName: strPtr("Acme Plumbing Co"),
		AdText:         "Fast local plumbing repairs",
		Description:    "Call today for same-day service",
		Position:       intPtr(1),
		LandingURL:     "https://acmeplumbing.example.com/offer",
		CreativeRef:    strPtr("img-123"),
	}
}

func TestWash_ApprovesCompleteSighting(t *testing.T) {
	v := Wash(fullSighting(), washConfig())
	assert.Equal(t, model.SightingApproved, v.Status)
	assert.True(t, v.NameValid)
	assert.InDelta(t, 1.0, v.Score, 0.001)
}

func TestWash_RejectsMissingURL(t *testing.T) {
	s := fullSighting()
	s.LandingURL = ""
	v := Wash(s, washConfig())
	assert.Equal(t, model.SightingRejected, v.Status)
	assert.Equal(t, ReasonNoLandingURL, v.Reason)

	s.LandingURL = "not a url"
	v = Wash(s, washConfig())
	assert.Equal(t, model.SightingRejected, v.Status)
	assert.Equal(t, ReasonNoLandingURL, v.Reason)
}

func TestWash_RejectsOversizedText(t *testing.T) {
	s := fullSighting()
	s.AdText = strings.Repeat("x", 9000)
	v := Wash(s, washConfig())
	assert.Equal(t, model.SightingRejected, v.Status)
	assert.Equal(t, ReasonOversizedText, v.Reason)
}

func TestWash_RejectsNonTargetText(t *testing.T) {
	s := fullSighting()
	s.AdText = "Быстрый ремонт сантехники в вашем районе"
	s.Description = "Звоните сегодня"
	v := Wash(s, washConfig())
	assert.Equal(t, model.SightingRejected, v.Status)
	assert.Equal(t, ReasonNonTargetText, v.Reason)
}

func TestWash_QuarantinesSparseSighting(t *testing.T) {
	s := &model.RawSighting{
		Channel:    model.ChannelDisplay,
		AdText:     "Limited time offer",
		LandingURL: "https://example.com",
	}
	v := Wash(s, washConfig())
	assert.Equal(t, model.SightingQuarantine, v.Status)
	assert.Equal(t, ReasonMidScore, v.Reason)
	assert.InDelta(t, 0.5, v.Score, 0.001)
}

func TestWash_InvalidNameKeepsSightingButFlagsIt(t *testing.T) {
	s := fullSighting()
	s.AdvertiserName = strPtr("https://spam.example")
	v := Wash(s, washConfig())
	// Name failure alone costs 0.2; the rest of the signal carries it.
	assert.Equal(t, model.SightingApproved, v.Status)
	assert.False(t, v.NameValid)
	assert.Equal(t, ReasonInvalidName, v.Reason)
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"Acme Plumbing Co", true},
		{"서울치킨", true},
		{"A", false},
		{"", false},
		{"https://example.com", false},
		{"www.example.com", false},
		{"010-1234-5678", false},
		{"+1 (555) 123-4567", false},
		{"---", false},
		{strings.Repeat("a", 150), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidName(tt.name))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme plumbing co", NormalizeName("  ACME   Plumbing\tCo "))
	// NFKC folds full-width forms.
	assert.Equal(t, "acme", NormalizeName("ＡＣＭＥ"))
}

func TestRunWash_CountsVerdicts(t *testing.T) {
	store := newMockStore()
	rejected := *fullSighting()
	rejected.ID = 1
	rejected.LandingURL = ""
	rejected.Status = model.SightingPending

	approved := *fullSighting()
	approved.ID = 2
	approved.Status = model.SightingPending

	sparse := model.RawSighting{
		ID:         3,
		Channel:    model.ChannelDisplay,
		AdText:     "Sale now on",
		LandingURL: "https://example.com",
		Status:     model.SightingPending,
	}

	store.sightings = []model.RawSighting{rejected, approved, sparse}

	result, err := RunWash(context.Background(), store, washConfig(), 100)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 1, result.Quarantined)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 0, result.Errors)

	assert.Equal(t, model.SightingRejected, store.washVerdicts[1])
	assert.Equal(t, model.SightingApproved, store.washVerdicts[2])
	assert.Equal(t, model.SightingQuarantine, store.washVerdicts[3])
}

func TestReview(t *testing.T) {
	store := newMockStore()
	require.NoError(t, Review(context.Background(), store, 7, true))
	assert.Equal(t, model.SightingApproved, store.reviewedIDs[7])

	require.NoError(t, Review(context.Background(), store, 8, false))
	assert.Equal(t, model.SightingRejected, store.reviewedIDs[8])
}
