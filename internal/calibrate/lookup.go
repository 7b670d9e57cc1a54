package calibrate

import (
	"context"

	"github.com/adlens/spend-cli/internal/model"
)

// AdvertiserTraits is the subset of advertiser metadata the lookup
// chain needs.
type AdvertiserTraits struct {
	Industry   string
	SizeBucket string
}

// Table is a read-only calibration snapshot loaded once per pass and
// injected into the estimation engine. It satisfies spend.Calibrator.
type Table struct {
	exact  map[exactKey]float64
	byISC  map[string]float64 // industry|size|channel
	byIS   map[string]float64 // industry|size
	bySize map[string]float64 // size only
	traits map[int64]AdvertiserTraits
}

type exactKey struct {
	advertiserID int64
	channel      model.Channel
}

// BuildTable assembles a lookup snapshot from computed benchmarks and
// the advertiser trait map.
func BuildTable(benchmarks []model.Benchmark, traits map[int64]AdvertiserTraits) *Table {
	t := &Table{
		exact:  map[exactKey]float64{},
		byISC:  map[string]float64{},
		byIS:   map[string]float64{},
		bySize: map[string]float64{},
		traits: traits,
	}

	type acc struct {
		sum float64
		n   int
	}
	exactAcc := map[exactKey]*acc{}
	iscAcc := map[string]*acc{}
	isAcc := map[string]*acc{}
	sizeAcc := map[string]*acc{}

	add := func(m map[string]*acc, key string, f float64) {
		a := m[key]
		if a == nil {
			a = &acc{}
			m[key] = a
		}
		a.sum += f
		a.n++
	}

	for _, b := range benchmarks {
		if b.CalibrationFactor == nil {
			continue
		}
		f := *b.CalibrationFactor

		ek := exactKey{advertiserID: b.AdvertiserID, channel: b.Channel}
		a := exactAcc[ek]
		if a == nil {
			a = &acc{}
			exactAcc[ek] = a
		}
		a.sum += f
		a.n++

		if b.Industry != "" && b.SizeBucket != "" {
			add(iscAcc, GroupKey(b.Industry, b.SizeBucket, b.Channel), f)
			add(isAcc, b.Industry+"|"+b.SizeBucket, f)
		}
		if b.SizeBucket != "" {
			add(sizeAcc, b.SizeBucket, f)
		}
	}

	for k, a := range exactAcc {
		t.exact[k] = a.sum / float64(a.n)
	}
	for k, a := range iscAcc {
		t.byISC[k] = a.sum / float64(a.n)
	}
	for k, a := range isAcc {
		t.byIS[k] = a.sum / float64(a.n)
	}
	for k, a := range sizeAcc {
		t.bySize[k] = a.sum / float64(a.n)
	}
	return t
}

// LoadTable builds a Table from the store in one read pass.
func LoadTable(ctx context.Context, store Store) (*Table, error) {
	benchmarks, err := store.ListComputed(ctx)
	if err != nil {
		return nil, err
	}
	traits, err := store.AdvertiserTraits(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTable(benchmarks, traits), nil
}

// Factor resolves the calibration factor for one advertiser/channel
// pair. Precedence: exact benchmark, then industry+size+channel group,
// then industry+size, then size only, then the neutral 1.0.
func (t *Table) Factor(advertiserID int64, channel model.Channel) float64 {
	if f, ok := t.exact[exactKey{advertiserID: advertiserID, channel: channel}]; ok {
		return f
	}

	traits, ok := t.traits[advertiserID]
	if !ok {
		return 1.0
	}
	if traits.Industry != "" && traits.SizeBucket != "" {
		if f, ok := t.byISC[GroupKey(traits.Industry, traits.SizeBucket, channel)]; ok {
			return f
		}
		if f, ok := t.byIS[traits.Industry+"|"+traits.SizeBucket]; ok {
			return f
		}
	}
	if traits.SizeBucket != "" {
		if f, ok := t.bySize[traits.SizeBucket]; ok {
			return f
		}
	}
	return 1.0
}
