// Package pipeline runs the batch passes that turn raw sightings into
// calibrated spend estimates. Each pass is registered by name, guarded
// by a Postgres advisory lock so two schedulers never rebuild the same
// scope at once, and recorded in pass_log.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/adlens/spend-cli/internal/db"
	"github.com/adlens/spend-cli/internal/notify"
	"github.com/adlens/spend-cli/internal/passlog"
)

// ErrAlreadyRunning is returned when another session holds the
// advisory lock for the requested pass.
var ErrAlreadyRunning = eris.New("pipeline: pass already running")

// Scope narrows a pass to a subset of advertisers. A zero Scope means
// the full dataset.
type Scope struct {
	AdvertiserIDs []int64
}

// Key returns a stable string identity for the scope, used for lock
// and deduplication keys.
func (s Scope) Key() string {
	if len(s.AdvertiserIDs) == 0 {
		return "all"
	}
	sorted := append([]int64(nil), s.AdvertiserIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	ids := make([]string, len(sorted))
	for i, id := range sorted {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(ids, ",")
}

// Pass is a named unit of batch work. Run returns a stats value that
// is recorded in pass_log and included in the completion event.
type Pass interface {
	Name() string
	Run(ctx context.Context, scope Scope) (any, error)
}

// PassFunc adapts a function to the Pass interface.
type PassFunc struct {
	PassName string
	Fn       func(ctx context.Context, scope Scope) (any, error)
}

func (p PassFunc) Name() string { return p.PassName }

func (p PassFunc) Run(ctx context.Context, scope Scope) (any, error) {
	return p.Fn(ctx, scope)
}

// Result summarizes a completed pass run.
type Result struct {
	Pass       string    `json:"pass"`
	Scope      string    `json:"scope"`
	RunID      int64     `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stats      any       `json:"stats,omitempty"`
}

// Engine dispatches passes by name.
type Engine struct {
	pool     db.Pool
	log      *passlog.Log
	notifier *notify.Notifier
	passes   map[string]Pass
	order    []string
	flight   singleflight.Group
}

// NewEngine creates an Engine. The notifier may be nil to disable
// completion webhooks.
func NewEngine(pool db.Pool, log *passlog.Log, notifier *notify.Notifier) *Engine {
	return &Engine{
		pool:     pool,
		log:      log,
		notifier: notifier,
		passes:   map[string]Pass{},
	}
}

// Register adds a pass. Registering two passes with the same name
// panics; pass wiring is a startup-time mistake, not a runtime one.
func (e *Engine) Register(p Pass) {
	if _, dup := e.passes[p.Name()]; dup {
		panic(fmt.Sprintf("pipeline: duplicate pass %q", p.Name()))
	}
	e.passes[p.Name()] = p
	e.order = append(e.order, p.Name())
}

// Passes returns registered pass names in registration order.
func (e *Engine) Passes() []string {
	return append([]string(nil), e.order...)
}

// Run executes a registered pass under an advisory lock. Identical
// concurrent requests within this process share a single execution;
// a lock held by another session returns ErrAlreadyRunning.
func (e *Engine) Run(ctx context.Context, name string, scope Scope) (*Result, error) {
	pass, ok := e.passes[name]
	if !ok {
		return nil, eris.Errorf("pipeline: unknown pass %q", name)
	}

	key := name + ":" + scope.Key()
	v, err, _ := e.flight.Do(key, func() (any, error) {
		return e.runLocked(ctx, pass, scope, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (e *Engine) runLocked(ctx context.Context, pass Pass, scope Scope, lockName string) (*Result, error) {
	acquired, err := db.TryAdvisoryLock(ctx, e.pool, lockName)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrAlreadyRunning
	}
	defer func() {
		if unlockErr := db.AdvisoryUnlock(context.WithoutCancel(ctx), e.pool, lockName); unlockErr != nil {
			zap.L().Warn("pipeline: advisory unlock failed",
				zap.String("pass", pass.Name()),
				zap.Error(unlockErr),
			)
		}
	}()

	log := zap.L().With(zap.String("pass", pass.Name()), zap.String("scope", scope.Key()))
	started := time.Now().UTC()

	runID, err := e.log.Start(ctx, pass.Name(), scope.Key())
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: pass started", zap.Int64("run_id", runID))

	stats, runErr := pass.Run(ctx, scope)
	finished := time.Now().UTC()

	if runErr != nil {
		if failErr := e.log.Fail(context.WithoutCancel(ctx), runID, runErr.Error()); failErr != nil {
			log.Warn("pipeline: failed to record failure", zap.Error(failErr))
		}
		e.publish(ctx, pass.Name(), scope, "failed", started, finished, stats, runErr)
		return nil, eris.Wrapf(runErr, "pipeline: pass %s", pass.Name())
	}

	if completeErr := e.log.Complete(ctx, runID, stats); completeErr != nil {
		log.Warn("pipeline: failed to record completion", zap.Error(completeErr))
	}
	log.Info("pipeline: pass complete",
		zap.Int64("run_id", runID),
		zap.Duration("elapsed", finished.Sub(started)),
	)
	e.publish(ctx, pass.Name(), scope, "complete", started, finished, stats, nil)

	return &Result{
		Pass:       pass.Name(),
		Scope:      scope.Key(),
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Stats:      stats,
	}, nil
}

func (e *Engine) publish(ctx context.Context, pass string, scope Scope, status string, started, finished time.Time, stats any, runErr error) {
	if e.notifier == nil {
		return
	}
	event := notify.Event{
		Pass:       pass,
		Scope:      scope.Key(),
		Status:     status,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if m := statsMap(stats); m != nil {
		event.Stats = m
	}
	e.notifier.PassComplete(context.WithoutCancel(ctx), event)
}

// statsMap flattens a stats struct into the loosely typed map the
// webhook payload carries.
func statsMap(stats any) map[string]any {
	if stats == nil {
		return nil
	}
	if m, ok := stats.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": stats}
}
