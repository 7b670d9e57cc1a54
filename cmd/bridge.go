package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/pipeline"
	sig "github.com/adlens/spend-cli/internal/signal"
)

var bridgeDays int

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Cross-check engine estimates against panel sampling data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runPass(ctx, "bridge", pipeline.Scope{})
		if err != nil {
			return err
		}

		r, ok := res.Stats.(*sig.BridgeResult)
		if !ok {
			return nil
		}

		fmt.Printf("%-10s %12s %16s %16s %12s\n",
			"channel", "requests", "panel monthly", "engine monthly", "correction")
		for _, n := range r.Networks {
			fmt.Printf("%-10s %12d %16.0f %16.0f %12.3f\n",
				n.Channel, n.RawRequests, n.MonthlyTotalSpend, n.DBMonthlyEstimate, n.RecommendedCorrection)
		}
		if r.Skipped > 0 || r.Errors > 0 {
			fmt.Printf("%d channels skipped, %d errors\n", r.Skipped, r.Errors)
		}
		return nil
	},
}

func init() {
	bridgeCmd.Flags().IntVar(&bridgeDays, "days", 30, "Sampling window in days")
	rootCmd.AddCommand(bridgeCmd)
}
