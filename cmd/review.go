package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/ingest"
)

var (
	reviewApprove bool
	reviewReject  bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <sighting-id>",
	Short: "Resolve a quarantined sighting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if reviewApprove == reviewReject {
			return eris.New("review: exactly one of --approve or --reject is required")
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "review: parse sighting id %q", args[0])
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := ingest.Review(ctx, ingest.NewPostgresStore(pool), id, reviewApprove); err != nil {
			return err
		}

		verdict := "rejected"
		if reviewApprove {
			verdict = "approved"
		}
		fmt.Printf("sighting %d %s\n", id, verdict)
		return nil
	},
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "Approve the sighting for promotion")
	reviewCmd.Flags().BoolVar(&reviewReject, "reject", false, "Reject the sighting")
	rootCmd.AddCommand(reviewCmd)
}
