package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/adlens/spend-cli/internal/calibrate"
	"github.com/adlens/spend-cli/internal/fetcher"
	"github.com/adlens/spend-cli/internal/pipeline"
	"github.com/adlens/spend-cli/pkg/notion"
)

var (
	calibrateImportFTP    bool
	calibrateImportNotion bool
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Benchmark import and calibration factor computation",
}

var calibrateComputeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute calibration factors for uncomputed benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runPass(ctx, "calibrate", pipeline.Scope{})
		if err != nil {
			return err
		}

		if r, ok := res.Stats.(*calibrate.ComputeResult); ok {
			fmt.Printf("computed factors for %d of %d benchmarks (%d skipped, %d errors)\n",
				r.Updated, r.Processed, r.Skipped, r.Errors)

			groups := make([]string, 0, len(r.GroupFactors))
			for g := range r.GroupFactors {
				groups = append(groups, g)
			}
			sort.Strings(groups)
			for _, g := range groups {
				fmt.Printf("  %-30s %.3f\n", g, r.GroupFactors[g])
			}
		}
		return nil
	},
}

var calibrateImportCmd = &cobra.Command{
	Use:   "import [drop-file]",
	Short: "Import benchmarks from a drop file, the FTP server, or Notion",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := calibrate.NewPostgresStore(pool)

		var result *calibrate.ImportResult
		switch {
		case calibrateImportNotion:
			if err := cfg.Validate("notion"); err != nil {
				return err
			}
			src := notion.NewSource(notion.NewClient(cfg.Notion.Token), cfg.Notion.BenchmarkDB)
			result, err = calibrate.ImportSource(ctx, store, src)

		case calibrateImportFTP:
			if cfg.Calibration.FTPHost == "" {
				return eris.New("calibrate: calibration.ftp_host is required for --ftp")
			}
			ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{
				User:     cfg.Calibration.FTPUser,
				Password: cfg.Calibration.FTPPass,
				Timeout:  30 * time.Second,
			})
			ftpURL := "ftp://" + cfg.Calibration.FTPHost + cfg.Calibration.FTPPath
			result, err = calibrate.ImportFTP(ctx, store, ftpFetcher, ftpURL)

		default:
			if len(args) == 0 {
				return eris.New("calibrate: a drop file argument is required unless --ftp or --notion is set")
			}
			result, err = calibrate.ImportFile(ctx, store, args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("read %d benchmarks: %d imported, %d skipped\n",
			result.Read, result.Imported, result.Skipped)
		return nil
	},
}

func init() {
	calibrateImportCmd.Flags().BoolVar(&calibrateImportFTP, "ftp", false, "Download the latest drop from the configured FTP server")
	calibrateImportCmd.Flags().BoolVar(&calibrateImportNotion, "notion", false, "Pull benchmarks from the Notion database")
	calibrateCmd.AddCommand(calibrateComputeCmd)
	calibrateCmd.AddCommand(calibrateImportCmd)
	rootCmd.AddCommand(calibrateCmd)
}
