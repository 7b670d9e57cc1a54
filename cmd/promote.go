package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/ingest"
	"github.com/adlens/spend-cli/internal/pipeline"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote approved sightings into canonical observations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runPass(ctx, "promote", pipeline.Scope{})
		if err != nil {
			return err
		}

		if r, ok := res.Stats.(*ingest.PromoteResult); ok {
			fmt.Printf("promoted %d of %d sightings (%d deduped, %d skipped, %d new advertisers, %d errors)\n",
				r.Promoted, r.Processed, r.Deduped, r.Skipped, r.AdvertisersCreated, r.Errors)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
}
