package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/model"
)

// Source reads benchmarks from a Notion database. It satisfies the
// calibrate.BenchmarkSource interface.
type Source struct {
	client Client
	dbID   string
}

// NewSource creates a benchmark source over the given database.
func NewSource(client Client, dbID string) *Source {
	return &Source{client: client, dbID: dbID}
}

// FetchBenchmarks queries every row of the benchmark database.
// Malformed rows are skipped with a warning.
func (s *Source) FetchBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	pages, err := QueryAll(ctx, s.client, s.dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: fetch benchmarks")
	}

	var out []model.Benchmark
	for _, p := range pages {
		b, err := benchmarkFromPage(p)
		if err != nil {
			zap.L().Warn("notion: skipping malformed benchmark page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func benchmarkFromPage(p notionapi.Page) (model.Benchmark, error) {
	var b model.Benchmark

	advertiserID := int64(numberProp(p, "Advertiser ID"))
	if advertiserID <= 0 {
		return b, eris.New("missing Advertiser ID")
	}

	channel := model.Channel(strings.ToLower(selectProp(p, "Channel")))
	if !channel.Valid() {
		return b, eris.Errorf("unknown channel %q", selectProp(p, "Channel"))
	}

	start, ok := dateProp(p, "Period Start")
	if !ok {
		return b, eris.New("missing Period Start")
	}
	end, ok := dateProp(p, "Period End")
	if !ok {
		return b, eris.New("missing Period End")
	}
	if end.Before(start) {
		return b, eris.New("Period End before Period Start")
	}

	actual := numberProp(p, "Actual Monthly Spend")
	if actual < 0 {
		return b, eris.New("negative Actual Monthly Spend")
	}

	return model.Benchmark{
		AdvertiserID:       advertiserID,
		Channel:            channel,
		PeriodStart:        start,
		PeriodEnd:          end,
		ActualMonthlySpend: actual,
		Industry:           selectProp(p, "Industry"),
		SizeBucket:         selectProp(p, "Size Bucket"),
		Source:             "notion",
	}, nil
}

func numberProp(p notionapi.Page, name string) float64 {
	if prop, ok := p.Properties[name]; ok {
		if np, ok := prop.(*notionapi.NumberProperty); ok {
			return np.Number
		}
	}
	return 0
}

func selectProp(p notionapi.Page, name string) string {
	if prop, ok := p.Properties[name]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			return sp.Select.Name
		}
	}
	return ""
}

func dateProp(p notionapi.Page, name string) (time.Time, bool) {
	if prop, ok := p.Properties[name]; ok {
		if dp, ok := prop.(*notionapi.DateProperty); ok && dp.Date != nil && dp.Date.Start != nil {
			return time.Time(*dp.Date.Start), true
		}
	}
	return time.Time{}, false
}
