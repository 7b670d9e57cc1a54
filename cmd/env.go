package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/calibrate"
	"github.com/adlens/spend-cli/internal/campaign"
	"github.com/adlens/spend-cli/internal/config"
	"github.com/adlens/spend-cli/internal/db"
	"github.com/adlens/spend-cli/internal/ingest"
	"github.com/adlens/spend-cli/internal/model"
	"github.com/adlens/spend-cli/internal/notify"
	"github.com/adlens/spend-cli/internal/passlog"
	"github.com/adlens/spend-cli/internal/pipeline"
	"github.com/adlens/spend-cli/internal/signal"
	"github.com/adlens/spend-cli/internal/spend"
	"github.com/adlens/spend-cli/pkg/sampler"
	"github.com/adlens/spend-cli/pkg/trends"
)

// sightingBatchLimit caps how many rows one wash or promote run picks
// up. Scheduled runs drain larger backlogs across invocations.
const sightingBatchLimit = 10_000

// env bundles the shared resources a command needs: the connection
// pool and the pass engine with every pass registered.
type env struct {
	pool   *pgxpool.Pool
	engine *pipeline.Engine
	log    *passlog.Log
}

func (e *env) Close() {
	e.pool.Close()
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return db.Open(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool.MaxConns, cfg.Store.Pool.MinConns)
}

// newSpendEngine builds an estimation engine with the current rate
// table and a fresh calibration snapshot.
func newSpendEngine(ctx context.Context, pool db.Pool) (*spend.Engine, error) {
	rates, err := spend.LoadRates(cfg.Rates.File)
	if err != nil {
		return nil, err
	}
	table, err := calibrate.LoadTable(ctx, calibrate.NewPostgresStore(pool))
	if err != nil {
		return nil, err
	}
	return spend.NewEngine(rates, table), nil
}

func newSamplerClient(sc config.SamplerConfig) sampler.Client {
	return sampler.NewClient(sc.BaseURL, sc.Key,
		sampler.WithRateLimit(sc.RatePerSec),
		sampler.WithHTTPClient(&http.Client{Timeout: time.Duration(sc.TimeoutSecs) * time.Second}),
	)
}

func newTrendsClient(tc config.TrendsConfig) trends.Client {
	return trends.NewClient(tc.BaseURL, tc.Key,
		trends.WithRateLimit(tc.RatePerSec),
		trends.WithHTTPClient(&http.Client{Timeout: time.Duration(tc.TimeoutSecs) * time.Second}),
	)
}

func rebuildExclusions() []model.Channel {
	out := make([]model.Channel, 0, len(cfg.Rebuild.ExcludedChannels))
	for _, c := range cfg.Rebuild.ExcludedChannels {
		out = append(out, model.Channel(c))
	}
	return out
}

func initEnv(ctx context.Context) (*env, error) {
	pool, err := openPool(ctx)
	if err != nil {
		return nil, err
	}

	log := passlog.NewLog(pool)
	engine := pipeline.NewEngine(pool, log, notify.NewNotifier(cfg.Notify))
	registerPasses(engine, pool)

	return &env{pool: pool, engine: engine, log: log}, nil
}

func registerPasses(engine *pipeline.Engine, pool db.Pool) {
	ingestStore := ingest.NewPostgresStore(pool)
	campaignStore := campaign.NewPostgresStore(pool)
	calibrateStore := calibrate.NewPostgresStore(pool)
	signalStore := signal.NewPostgresStore(pool)

	engine.Register(pipeline.PassFunc{PassName: "wash", Fn: func(ctx context.Context, _ pipeline.Scope) (any, error) {
		return ingest.RunWash(ctx, ingestStore, &cfg.Wash, sightingBatchLimit)
	}})

	engine.Register(pipeline.PassFunc{PassName: "promote", Fn: func(ctx context.Context, _ pipeline.Scope) (any, error) {
		enricher := ingest.NewPageEnricher(time.Duration(cfg.Wash.EnrichTimeoutSecs) * time.Second)
		return ingest.RunPromote(ctx, ingestStore, enricher, sightingBatchLimit)
	}})

	engine.Register(pipeline.PassFunc{PassName: "rebuild", Fn: func(ctx context.Context, scope pipeline.Scope) (any, error) {
		spendEngine, err := newSpendEngine(ctx, pool)
		if err != nil {
			return nil, err
		}
		opts := campaign.Options{
			ExcludedChannels: rebuildExclusions(),
			ActiveDays:       cfg.Rebuild.ActiveDays,
			AdvertiserIDs:    scope.AdvertiserIDs,
		}
		return campaign.Rebuild(ctx, campaignStore, spendEngine, opts, time.Now().UTC())
	}})

	engine.Register(pipeline.PassFunc{PassName: "merge", Fn: func(ctx context.Context, _ pipeline.Scope) (any, error) {
		return campaign.MergeCrossChannel(ctx, campaignStore)
	}})

	engine.Register(pipeline.PassFunc{PassName: "calibrate", Fn: func(ctx context.Context, _ pipeline.Scope) (any, error) {
		return calibrate.ComputeFactors(ctx, calibrateStore, &cfg.Calibration)
	}})

	engine.Register(pipeline.PassFunc{PassName: "bridge", Fn: func(ctx context.Context, _ pipeline.Scope) (any, error) {
		if err := cfg.Validate("sampler"); err != nil {
			return nil, err
		}
		spendEngine, err := newSpendEngine(ctx, pool)
		if err != nil {
			return nil, err
		}
		client := newSamplerClient(cfg.Sampler)
		return signal.EstimateFromSampling(ctx, signalStore, client, spendEngine, signal.DefaultBridgeRates(), bridgeDays)
	}})

	engine.Register(pipeline.PassFunc{PassName: "fuse", Fn: func(ctx context.Context, _ pipeline.Scope) (any, error) {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if cfg.Trends.BaseURL != "" {
			if _, err := signal.CollectTrendScores(ctx, signalStore, newTrendsClient(cfg.Trends), today); err != nil {
				zap.L().Warn("trend collection failed, fusing stored scores", zap.Error(err))
			}
		}
		return signal.RunFuse(ctx, signalStore, &cfg.Fusion, today)
	}})
}

// runPass opens the environment, runs one pass, and tears down.
func runPass(ctx context.Context, name string, scope pipeline.Scope) (*pipeline.Result, error) {
	env, err := initEnv(ctx)
	if err != nil {
		return nil, err
	}
	defer env.Close()

	return env.engine.Run(ctx, name, scope)
}
