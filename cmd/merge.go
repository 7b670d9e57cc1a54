package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/campaign"
	"github.com/adlens/spend-cli/internal/pipeline"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge labeled same-product campaigns across channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runPass(ctx, "merge", pipeline.Scope{})
		if err != nil {
			return err
		}

		if r, ok := res.Stats.(*campaign.MergeResult); ok {
			fmt.Printf("merged %d groups: %d campaigns absorbed, %d deleted, %d errors\n",
				r.Groups, r.Merged, r.Deleted, r.Errors)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
