package calibrate

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/fetcher"
	"github.com/adlens/spend-cli/internal/model"
)

// ImportResult summarizes one benchmark import.
type ImportResult struct {
	Read     int   `json:"read"`
	Imported int64 `json:"imported"`
	Skipped  int   `json:"skipped"`
}

// BenchmarkSource supplies benchmarks from an external system (the
// Notion database, for instance).
type BenchmarkSource interface {
	FetchBenchmarks(ctx context.Context) ([]model.Benchmark, error)
}

// benchmark drop column order: advertiser_id, channel, period_start,
// period_end, actual_monthly_spend, industry, size_bucket.
const dropColumns = 7

// ParseRows converts raw drop rows into benchmarks. Malformed rows are
// skipped with a warning, never fatal.
func ParseRows(rows [][]string, source string) ([]model.Benchmark, int) {
	log := zap.L().With(zap.String("phase", "calibrate-import"))

	var out []model.Benchmark
	skipped := 0
	for i, row := range rows {
		b, err := parseRow(row, source)
		if err != nil {
			log.Warn("skipping malformed benchmark row",
				zap.Int("row", i+1), zap.Error(err))
			skipped++
			continue
		}
		out = append(out, b)
	}
	return out, skipped
}

func parseRow(row []string, source string) (model.Benchmark, error) {
	var b model.Benchmark
	if len(row) < dropColumns {
		return b, eris.Errorf("expected %d columns, got %d", dropColumns, len(row))
	}

	advertiserID, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return b, eris.Wrap(err, "advertiser_id")
	}

	channel := model.Channel(strings.ToLower(strings.TrimSpace(row[1])))
	if !channel.Valid() {
		return b, eris.Errorf("unknown channel %q", row[1])
	}

	start, err := time.Parse("2006-01-02", strings.TrimSpace(row[2]))
	if err != nil {
		return b, eris.Wrap(err, "period_start")
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(row[3]))
	if err != nil {
		return b, eris.Wrap(err, "period_end")
	}
	if end.Before(start) {
		return b, eris.New("period_end before period_start")
	}

	actual, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[4]), ",", ""), 64)
	if err != nil {
		return b, eris.Wrap(err, "actual_monthly_spend")
	}
	if actual < 0 {
		return b, eris.New("negative actual_monthly_spend")
	}

	b = model.Benchmark{
		AdvertiserID:       advertiserID,
		Channel:            channel,
		PeriodStart:        start,
		PeriodEnd:          end,
		ActualMonthlySpend: actual,
		Industry:           strings.TrimSpace(row[5]),
		SizeBucket:         strings.TrimSpace(row[6]),
		Source:             source,
	}
	return b, nil
}

// ImportFile imports a CSV or XLSX benchmark drop from disk.
func ImportFile(ctx context.Context, store Store, path string) (*ImportResult, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrapf(openErr, "calibrate: open drop %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, err = fetcher.ReadCSV(f, fetcher.CSVOptions{HasHeader: true, TrimSpace: true})
	case ".xlsx":
		rows, err = fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: 1})
	default:
		return nil, eris.Errorf("calibrate: unsupported drop format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	benchmarks, skipped := ParseRows(rows, "file:"+filepath.Base(path))
	return storeBenchmarks(ctx, store, benchmarks, len(rows), skipped)
}

// ImportFTP downloads a drop from the ops FTP server, then imports it.
func ImportFTP(ctx context.Context, store Store, ftpFetcher fetcher.Fetcher, ftpURL string) (*ImportResult, error) {
	tmp, err := os.CreateTemp("", "benchmark-drop-*"+filepath.Ext(ftpURL))
	if err != nil {
		return nil, eris.Wrap(err, "calibrate: create temp drop file")
	}
	tmp.Close()                 //nolint:errcheck
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := ftpFetcher.DownloadToFile(ctx, ftpURL, tmp.Name()); err != nil {
		return nil, err
	}
	return ImportFile(ctx, store, tmp.Name())
}

// ImportSource imports benchmarks from an external source such as the
// Notion database.
func ImportSource(ctx context.Context, store Store, source BenchmarkSource) (*ImportResult, error) {
	benchmarks, err := source.FetchBenchmarks(ctx)
	if err != nil {
		return nil, err
	}
	return storeBenchmarks(ctx, store, benchmarks, len(benchmarks), 0)
}

func storeBenchmarks(ctx context.Context, store Store, benchmarks []model.Benchmark, read, skipped int) (*ImportResult, error) {
	n, err := store.UpsertBenchmarks(ctx, benchmarks)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Read: read, Imported: n, Skipped: skipped}
	zap.L().Info("benchmark import complete",
		zap.Int("read", result.Read),
		zap.Int64("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
