package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/passlog"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent pass runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		entries, err := passlog.NewLog(pool).List(ctx, statusLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no pass runs recorded")
			return nil
		}

		fmt.Printf("%-20s %-10s %-12s %-10s %-9s %s\n",
			"started", "pass", "scope", "status", "duration", "detail")
		for _, e := range entries {
			fmt.Println(formatEntry(e))
		}
		return nil
	},
}

func formatEntry(e passlog.Entry) string {
	scope := e.Scope
	if scope == "" {
		scope = "all"
	}

	duration := "-"
	if e.CompletedAt != nil {
		duration = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
	}

	detail := e.Error
	if detail == "" && e.Stats != nil {
		detail = fmt.Sprintf("%v", e.Stats)
	}

	return fmt.Sprintf("%-20s %-10s %-12s %-10s %-9s %s",
		e.StartedAt.UTC().Format("2006-01-02 15:04:05"), e.Pass, scope, e.Status, duration, detail)
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Number of runs to show")
	rootCmd.AddCommand(statusCmd)
}
