package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/campaign"
	"github.com/adlens/spend-cli/internal/pipeline"
)

var rebuildAdvertisers string

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild campaigns and spend estimates from observations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ids, err := parseAdvertisers(rebuildAdvertisers)
		if err != nil {
			return err
		}

		res, err := runPass(ctx, "rebuild", pipeline.Scope{AdvertiserIDs: ids})
		if err != nil {
			return err
		}

		if r, ok := res.Stats.(*campaign.RebuildResult); ok {
			fmt.Printf("rebuilt %d campaigns from %d observations: %d estimate rows, $%.2f total, %d skipped, %d errors\n",
				r.Campaigns, r.Observations, r.EstimateRows, r.TotalSpend, r.Skipped, r.Errors)
		}
		return nil
	},
}

// parseAdvertisers parses a comma-separated id list. Empty means the
// full dataset.
func parseAdvertisers(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "rebuild: parse advertiser id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	rebuildCmd.Flags().StringVar(&rebuildAdvertisers, "advertisers", "", "Comma-separated advertiser ids to rebuild (default: all)")
	rootCmd.AddCommand(rebuildCmd)
}
