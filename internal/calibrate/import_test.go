package calibrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/spend-cli/internal/model"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"7", "search", "2026-07-01", "2026-07-30", "500,000,000", "plumbing", "small"},
		{"bad-id", "search", "2026-07-01", "2026-07-30", "100", "", ""},
		{"8", "podcast", "2026-07-01", "2026-07-30", "100", "", ""},
		{"9", "display", "2026-07-30", "2026-07-01", "100", "", ""},
		{"10", "video", "2026-07-01", "2026-07-30", "-5", "", ""},
		{"11", "social"},
	}

	benchmarks, skipped := ParseRows(rows, "file:drop.csv")
	require.Len(t, benchmarks, 1)
	assert.Equal(t, 5, skipped)

	b := benchmarks[0]
	assert.Equal(t, int64(7), b.AdvertiserID)
	assert.Equal(t, model.ChannelSearch, b.Channel)
	assert.Equal(t, 500_000_000.0, b.ActualMonthlySpend)
	assert.Equal(t, "plumbing", b.Industry)
	assert.Equal(t, "small", b.SizeBucket)
	assert.Equal(t, "file:drop.csv", b.Source)
}

func TestImportFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.csv")
	content := "advertiser_id,channel,period_start,period_end,actual,industry,size\n" +
		"7,search,2026-07-01,2026-07-30,500000,plumbing,small\n" +
		"oops,search,2026-07-01,2026-07-30,1,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := newMockStore()
	result, err := ImportFile(context.Background(), store, path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Read)
	assert.Equal(t, int64(1), result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, int64(7), store.upserted[0].AdvertiserID)
}

func TestImportFile_UnsupportedFormat(t *testing.T) {
	store := newMockStore()
	_, err := ImportFile(context.Background(), store, "/tmp/drop.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

// fixedSource implements BenchmarkSource.
type fixedSource struct {
	benchmarks []model.Benchmark
	err        error
}

func (s *fixedSource) FetchBenchmarks(context.Context) ([]model.Benchmark, error) {
	return s.benchmarks, s.err
}

func TestImportSource(t *testing.T) {
	store := newMockStore()
	source := &fixedSource{benchmarks: []model.Benchmark{
		{AdvertiserID: 7, Channel: model.ChannelSearch, ActualMonthlySpend: 100},
	}}

	result, err := ImportSource(context.Background(), store, source)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Imported)
	assert.Len(t, store.upserted, 1)
}

func TestImportSource_Error(t *testing.T) {
	store := newMockStore()
	_, err := ImportSource(context.Background(), store, &fixedSource{err: assert.AnError})
	require.Error(t, err)
}
