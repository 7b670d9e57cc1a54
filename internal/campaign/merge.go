package campaign

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/model"
)

// MergeResult summarizes one cross-channel merge pass.
type MergeResult struct {
	Groups  int `json:"groups"`
	Merged  int `json:"merged"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

type mergeKey struct {
	advertiserID int64
	label        string
}

// MergeCrossChannel folds single-channel campaigns of one advertiser
// that share a product label into one logical campaign. Spend and
// snapshot counts are summed, creative id sets unioned, and estimate
// rows reassigned to the surviving campaign before the merged-away rows
// are deleted. Campaigns without a label are never merged.
func MergeCrossChannel(ctx context.Context, store Store) (*MergeResult, error) {
	log := zap.L().With(zap.String("phase", "merge"))

	campaigns, err := store.ListLabeled(ctx)
	if err != nil {
		return nil, err
	}

	groups := map[mergeKey][]model.Campaign{}
	for _, c := range campaigns {
		if c.ProductLabel == nil || *c.ProductLabel == "" {
			continue
		}
		key := mergeKey{advertiserID: c.AdvertiserID, label: *c.ProductLabel}
		groups[key] = append(groups[key], c)
	}

	result := &MergeResult{}
	for key, members := range groups {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if len(members) < 2 {
			continue
		}
		result.Groups++

		// The oldest row survives; everything else folds into it.
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		survivor := members[0]

		seen := map[string]bool{}
		for _, id := range survivor.CreativeIDs {
			seen[id] = true
		}

		for _, other := range members[1:] {
			survivor.TotalEstSpend += other.TotalEstSpend
			survivor.SnapshotCount += other.SnapshotCount
			survivor.AdOccurrences += other.AdOccurrences
			if other.FirstSeen.Before(survivor.FirstSeen) {
				survivor.FirstSeen = other.FirstSeen
			}
			if other.LastSeen.After(survivor.LastSeen) {
				survivor.LastSeen = other.LastSeen
			}
			if other.Status == model.CampaignActive {
				survivor.Status = model.CampaignActive
			}
			for _, id := range other.CreativeIDs {
				if !seen[id] {
					seen[id] = true
					survivor.CreativeIDs = append(survivor.CreativeIDs, id)
				}
			}
		}

		if err := mergeGroup(ctx, store, &survivor, members[1:]); err != nil {
			log.Warn("merge group failed",
				zap.Int64("advertiser_id", key.advertiserID),
				zap.String("label", key.label),
				zap.Error(err))
			result.Errors++
			continue
		}
		result.Merged++
		result.Deleted += len(members) - 1
	}

	log.Info("cross-channel merge complete",
		zap.Int("groups", result.Groups),
		zap.Int("merged", result.Merged),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// mergeGroup reassigns dependents to the survivor, updates it, and
// deletes the merged-away campaigns in that order so no estimate row is
// ever orphaned.
func mergeGroup(ctx context.Context, store Store, survivor *model.Campaign, absorbed []model.Campaign) error {
	for _, other := range absorbed {
		if err := store.ReassignEstimates(ctx, other.ID, survivor.ID); err != nil {
			return err
		}
	}
	if err := store.UpdateMergedCampaign(ctx, survivor); err != nil {
		return err
	}
	for _, other := range absorbed {
		if err := store.DeleteCampaign(ctx, other.ID); err != nil {
			return err
		}
	}
	return nil
}
