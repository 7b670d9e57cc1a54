// Package campaign rebuilds advertiser/channel campaigns from canonical
// observations and derives their daily spend estimates.
package campaign

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/model"
	"github.com/adlens/spend-cli/internal/spend"
)

// Options scope one rebuild pass.
type Options struct {
	ExcludedChannels []model.Channel
	ActiveDays       int
	AdvertiserIDs    []int64
}

// RebuildResult summarizes one rebuild pass.
type RebuildResult struct {
	Campaigns    int     `json:"campaigns"`
	EstimateRows int64   `json:"estimate_rows"`
	Observations int     `json:"observations"`
	Skipped      int     `json:"skipped"`
	Errors       int     `json:"errors"`
	TotalSpend   float64 `json:"total_spend"`
}

type groupKey struct {
	advertiserID int64
	channel      model.Channel
}

// group accumulates one (advertiser, channel) campaign in progress.
type group struct {
	firstSeen   time.Time
	lastSeen    time.Time
	occurrences int
	snapshots   int
	creativeIDs []string
	formats     map[string]bool
	dayHits     map[time.Time]float64
}

// Rebuild deletes and recreates every campaign and spend estimate in
// scope. Deletion always precedes reinsertion for the same scope, so a
// rerun with no new data reproduces identical aggregate totals.
//
// Each observation's seen count is spread evenly across its observed
// date span into per-day hit buckets. There is no finer-grained
// timestamp per occurrence; the even spread is a deliberate
// approximation, meaningful at the aggregate level only.
func Rebuild(ctx context.Context, store Store, engine *spend.Engine, opts Options, now time.Time) (*RebuildResult, error) {
	log := zap.L().With(zap.String("phase", "rebuild"))

	channels := includedChannels(opts.ExcludedChannels)
	if err := store.DeleteScope(ctx, channels, opts.AdvertiserIDs); err != nil {
		return nil, err
	}

	observations, err := store.ListObservations(ctx, channels, opts.AdvertiserIDs)
	if err != nil {
		return nil, err
	}
	inHouse, err := store.InHouseAdvertisers(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("running rebuild",
		zap.Int("observations", len(observations)),
		zap.Int("channels", len(channels)),
	)

	result := &RebuildResult{Observations: len(observations)}
	groups := map[groupKey]*group{}
	var order []groupKey

	for i := range observations {
		obs := &observations[i]
		if obs.AdvertiserID == nil || obs.LandingURL == "" {
			result.Skipped++
			continue
		}

		key := groupKey{advertiserID: *obs.AdvertiserID, channel: obs.Channel}
		g := groups[key]
		if g == nil {
			g = &group{
				firstSeen: obs.FirstSeen,
				lastSeen:  obs.LastSeen,
				formats:   map[string]bool{},
				dayHits:   map[time.Time]float64{},
			}
			groups[key] = g
			order = append(order, key)
		}

		if obs.FirstSeen.Before(g.firstSeen) {
			g.firstSeen = obs.FirstSeen
		}
		if obs.LastSeen.After(g.lastSeen) {
			g.lastSeen = obs.LastSeen
		}
		g.occurrences += obs.SeenCount
		g.snapshots++
		g.creativeIDs = append(g.creativeIDs, obs.CreativeHash)
		if obs.AdType != "" {
			g.formats[obs.AdType] = true
		}
		spreadHits(g.dayHits, obs)
	}

	for _, key := range order {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		g := groups[key]

		camp, estimates := buildCampaign(engine, key, g, inHouse[key.advertiserID], opts.ActiveDays, now)

		if err := store.InsertCampaign(ctx, camp); err != nil {
			log.Warn("insert campaign failed",
				zap.Int64("advertiser_id", key.advertiserID),
				zap.String("channel", string(key.channel)),
				zap.Error(err))
			result.Errors++
			continue
		}
		for i := range estimates {
			estimates[i].CampaignID = camp.ID
		}
		n, err := store.InsertEstimates(ctx, estimates)
		if err != nil {
			log.Warn("insert estimates failed",
				zap.Int64("campaign_id", camp.ID), zap.Error(err))
			result.Errors++
			continue
		}

		result.Campaigns++
		result.EstimateRows += n
		result.TotalSpend += camp.TotalEstSpend
	}

	log.Info("rebuild complete",
		zap.Int("campaigns", result.Campaigns),
		zap.Int64("estimate_rows", result.EstimateRows),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// spreadHits distributes an observation's seen count evenly over its
// observed span.
func spreadHits(dayHits map[time.Time]float64, obs *model.Observation) {
	start := dateOf(obs.FirstSeen)
	end := dateOf(obs.LastSeen)
	days := int(end.Sub(start).Hours()/24) + 1
	perDay := float64(obs.SeenCount) / float64(days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dayHits[d] += perDay
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// buildCampaign turns one accumulated group into a campaign plus its
// daily estimate rows.
func buildCampaign(engine *spend.Engine, key groupKey, g *group, inHouse bool, activeDays int, now time.Time) (*model.Campaign, []model.SpendEstimate) {
	spanDays := int(dateOf(g.lastSeen).Sub(dateOf(g.firstSeen)).Hours()/24) + 1

	formats := make([]string, 0, len(g.formats))
	for f := range g.formats {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	ad := spend.AdData{
		AdvertiserID:  key.advertiserID,
		InHouse:       inHouse,
		CreativeCount: len(g.creativeIDs),
		Formats:       formats,
		ActiveDays:    spanDays,
	}

	var estimates []model.SpendEstimate
	var total float64
	for d := dateOf(g.firstSeen); !d.After(dateOf(g.lastSeen)); d = d.AddDate(0, 0, 1) {
		hits := int(math.Round(g.dayHits[d]))
		if hits == 0 && g.dayHits[d] > 0 {
			hits = 1
		}
		// Gap days between disjoint observation spans carry no
		// frequency evidence. Catalog channels still estimate across
		// them; the creatives stay live for the whole span.
		if hits == 0 && !key.channel.IsCatalog() {
			continue
		}
		est := engine.Estimate(key.channel, ad, spend.FrequencyData{AdHits: hits})
		estimates = append(estimates, model.SpendEstimate{
			Date:       d,
			Channel:    key.channel,
			DailySpend: est.DailySpend,
			Confidence: est.Confidence,
			Method:     est.Method,
			Factors:    est.Factors,
		})
		total += est.DailySpend
	}

	status := model.CampaignCompleted
	if activeDays > 0 && !g.lastSeen.Before(now.AddDate(0, 0, -activeDays)) {
		status = model.CampaignActive
	}

	camp := &model.Campaign{
		AdvertiserID:  key.advertiserID,
		Channel:       key.channel,
		FirstSeen:     g.firstSeen,
		LastSeen:      g.lastSeen,
		AdOccurrences: g.occurrences,
		SnapshotCount: g.snapshots,
		Status:        status,
		// Rolling 30-day projection from the observed daily average.
		TotalEstSpend: total / float64(spanDays) * 30,
		CreativeIDs:   g.creativeIDs,
	}
	return camp, estimates
}

func includedChannels(excluded []model.Channel) []model.Channel {
	skip := map[model.Channel]bool{}
	for _, ch := range excluded {
		skip[ch] = true
	}
	var out []model.Channel
	for _, ch := range model.AllChannels() {
		if !skip[ch] {
			out = append(out, ch)
		}
	}
	return out
}
