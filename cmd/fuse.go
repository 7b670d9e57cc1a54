package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/pipeline"
	sig "github.com/adlens/spend-cli/internal/signal"
)

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse secondary signals into per-advertiser composites",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runPass(ctx, "fuse", pipeline.Scope{})
		if err != nil {
			return err
		}

		if r, ok := res.Stats.(*sig.FuseResult); ok {
			fmt.Printf("fused %d of %d advertisers (%d errors)\n",
				r.Fused, r.Processed, r.Errors)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fuseCmd)
}
