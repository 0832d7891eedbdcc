package sched

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"

	"github.com/relex-dev/bearcore/internal/bears"
	"github.com/relex-dev/bearcore/internal/events"
)

// pool runs one goroutine per dispatched unit, bounded to at most
// concurrency units in flight at a time via a weighted semaphore. It never
// mutates the tracker or the coordinator's running set directly; every
// observation is reported back over resultCh/doneCh so the coordinator
// remains the sole owner of scheduling state.
type pool struct {
	concurrency int64
	sem         *semaphore.Weighted
	logger      *slog.Logger
	evSink      events.Sink

	resultCh chan resultMsg
	doneCh   chan unitDoneMsg
}

func newPool(concurrency int, logger *slog.Logger, evSink events.Sink, bufSize int) *pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &pool{
		concurrency: int64(concurrency),
		sem:         semaphore.NewWeighted(int64(concurrency)),
		logger:      logger,
		evSink:      evSink,
		resultCh:    make(chan resultMsg, bufSize),
		doneCh:      make(chan unitDoneMsg, bufSize),
	}
}

// dispatch blocks until a worker slot is free (or ctx is done), then starts
// a goroutine running unit's tasks. The goroutine always reports exactly
// one unitDoneMsg on doneCh before exiting, regardless of how it fails.
func (p *pool) dispatch(ctx context.Context, unit bears.Unit) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("sched: acquiring worker slot: %w", err)
	}

	go func() {
		defer p.sem.Release(1)
		p.runUnit(ctx, unit)
	}()

	return nil
}

// runUnit generates and executes every task for unit, forwarding each
// result to resultCh and finally reporting completion on doneCh. A panic
// anywhere in GenerateTasks or ExecuteTask is recovered and folded into the
// unit's error instead of crashing the pool.
func (p *pool) runUnit(ctx context.Context, unit bears.Unit) {
	var unitErr error
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("sched: unit panicked", slog.String("unit", unit.Name()), slog.Any("panic", r))
			unitErr = multierror.Append(unitErr, fmt.Errorf("sched: panic executing %q: %v", unit.Name(), r))
		}
		p.doneCh <- unitDoneMsg{unit: unit, err: unitErr}
	}()

	tasks, err := unit.GenerateTasks()
	if err != nil {
		unitErr = fmt.Errorf("sched: generating tasks for %q: %w", unit.Name(), err)
		return
	}

	// An empty task set completes the unit immediately: this is the
	// at-most-one-progress rule applied to a unit with nothing to run.
	for _, task := range tasks {
		results, err := unit.ExecuteTask(ctx, task)
		if err != nil {
			p.logger.Warn("sched: task failed", slog.String("unit", unit.Name()), slog.String("error", err.Error()))
			unitErr = multierror.Append(unitErr, fmt.Errorf("sched: executing task for %q: %w", unit.Name(), err))
			continue
		}
		for _, res := range results {
			select {
			case p.resultCh <- resultMsg{unit: unit, result: res}:
			case <-ctx.Done():
				return
			}
		}
	}
}
