package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <capture.db>",
	Short: "Import a crawler capture file into raw sightings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		result, err := ingest.Import(ctx, ingest.NewPostgresStore(pool), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("read %d sightings: %d inserted, %d skipped\n",
			result.Read, result.Inserted, result.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
