package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/ingest"
	"github.com/adlens/spend-cli/internal/pipeline"
)

var washCmd = &cobra.Command{
	Use:   "wash",
	Short: "Wash pending sightings into approved, quarantined, or rejected",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runPass(ctx, "wash", pipeline.Scope{})
		if err != nil {
			return err
		}

		if r, ok := res.Stats.(*ingest.WashResult); ok {
			fmt.Printf("washed %d sightings: %d approved, %d quarantined, %d rejected, %d errors\n",
				r.Processed, r.Approved, r.Quarantined, r.Rejected, r.Errors)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(washCmd)
}
