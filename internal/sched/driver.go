// Package sched drives a set of seed units to completion: it builds the
// dependency tracker and initial ready set, then runs a channel-based
// coordinator goroutine alongside a semaphore-bounded worker pool until
// every unit has finished, streaming results to a caller-supplied sink.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/relex-dev/bearcore/internal/bears"
	"github.com/relex-dev/bearcore/internal/depgraph"
	"github.com/relex-dev/bearcore/internal/events"
)

// Config controls a Driver's resource usage and diagnostics.
type Config struct {
	// Concurrency bounds the number of units with tasks in flight at once.
	// Defaults to the host CPU count (runtime.NumCPU(), or 1 if that is not
	// positive) if zero or negative.
	Concurrency int

	// Logger receives structured diagnostics. Defaults to slog.Default()
	// if nil.
	Logger *slog.Logger

	// Events, if set, receives a full trace of scheduling events for a
	// session. Defaults to events.NopSink{}.
	Events events.Sink
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = runtime.NumCPU()
		if c.Concurrency < 1 {
			c.Concurrency = 1
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Events == nil {
		c.Events = events.NopSink{}
	}
	return c
}

// Driver runs scheduling sessions against a fixed configuration.
type Driver struct {
	cfg Config
}

// New returns a Driver configured with cfg (unset fields take defaults).
func New(cfg Config) *Driver {
	return &Driver{cfg: cfg.withDefaults()}
}

// Run initializes the dependency graph for seeds, verifies it is acyclic,
// and drives every reachable unit to completion, invoking sink once per
// Result produced. It returns once every unit (seed or dependency) has
// finished, or ctx is canceled.
//
// Run aggregates every per-task and per-unit error into a single returned
// error rather than stopping at the first failure: a failing unit still
// counts as finished for the purposes of releasing its dependents, since
// there is no retry path to wait for.
func (d *Driver) Run(ctx context.Context, seeds []bears.Unit, sink bears.Sink) error {
	if len(seeds) == 0 {
		return ErrNoSeeds
	}

	sessionID := uuid.NewString()
	logger := d.cfg.Logger.With(slog.String("session_id", sessionID))

	tracker, ready, err := bears.Initialize(seeds)
	if err != nil {
		return fmt.Errorf("sched: initializing dependency graph: %w", err)
	}

	if err := depgraph.CheckAcyclic(tracker); err != nil {
		return fmt.Errorf("%w: %w", ErrCyclicDependencies, err)
	}

	total := len(unionUnits(seeds, tracker))
	if total == 0 {
		return nil
	}

	events.SafeRecord(d.cfg.Events, events.Event{Kind: events.KindSessionStart})

	coord := newCoordinator(tracker, sink, d.cfg.Events, logger, total)
	wp := newPool(d.cfg.Concurrency, logger, d.cfg.Events, total)

	eg, egCtx := errgroup.WithContext(ctx)

	var aggErr error

	eg.Go(func() error {
		return d.runLoop(egCtx, coord, wp, ready, &aggErr)
	})

	runErr := eg.Wait()
	events.SafeRecord(d.cfg.Events, events.Event{Kind: events.KindSessionDone})

	if runErr != nil {
		aggErr = multierror.Append(aggErr, runErr)
	}
	return aggErr
}

// runLoop is the coordinator's event loop: it dispatches every ready unit,
// then alternates between accepting new dispatch requests (as units become
// ready) and draining worker completions, until every unit has finished.
func (d *Driver) runLoop(ctx context.Context, coord *coordinator, wp *pool, initialReady []bears.Unit, aggErr *error) error {
	pending := append([]bears.Unit(nil), initialReady...)

	dispatchAll := func() error {
		for len(pending) > 0 {
			unit := pending[0]
			pending = pending[1:]

			// Defensive check (spec.md §4.4): a correctly-built tracker
			// never hands dispatchAll a unit with outstanding predecessors,
			// but a unit that slips through anyway must be held back rather
			// than dispatched against an incomplete dependency graph.
			if deps := coord.tracker.GetDependencies(unit); len(deps) != 0 {
				coord.logger.Warn("sched: dependencies not yet resolved, holding back",
					slog.String("unit", unit.Name()), slog.Int("outstanding", len(deps)))
				continue
			}

			coord.markDispatched(unit)
			if err := wp.dispatch(ctx, unit); err != nil {
				return err
			}
		}
		return nil
	}

	if err := dispatchAll(); err != nil {
		return err
	}

	for !coord.isComplete() {
		select {
		case <-ctx.Done():
			d.cancelOutstanding(coord, pending, aggErr)
			return ctx.Err()

		case msg := <-wp.resultCh:
			coord.deliverResult(msg)

		case msg := <-wp.doneCh:
			if msg.err != nil {
				*aggErr = multierror.Append(*aggErr, msg.err)
			}
			newlyReady := coord.finish(msg)
			pending = append(pending, newlyReady...)
			if err := dispatchAll(); err != nil {
				return err
			}
		}
	}

	// Drain any results that arrived concurrently with the final doneCh,
	// so the sink observes every result a completed unit produced.
	for {
		select {
		case msg := <-wp.resultCh:
			coord.deliverResult(msg)
		default:
			return nil
		}
	}
}

func (d *Driver) cancelOutstanding(coord *coordinator, pending []bears.Unit, aggErr *error) {
	for unit := range coord.running {
		*aggErr = multierror.Append(*aggErr, fmt.Errorf("%w: %s", ErrSessionCanceled, unit.Name()))
	}
	for _, unit := range pending {
		*aggErr = multierror.Append(*aggErr, fmt.Errorf("%w: %s", ErrSessionCanceled, unit.Name()))
	}
}

// unionUnits returns every unit reachable in a session: the seeds plus
// every node the tracker knows about.
func unionUnits(seeds []bears.Unit, tracker *depgraph.Tracker) map[bears.Unit]struct{} {
	out := make(map[bears.Unit]struct{}, len(seeds))
	for _, u := range seeds {
		out[u] = struct{}{}
	}
	for n := range tracker.Nodes() {
		out[n.(bears.Unit)] = struct{}{}
	}
	return out
}
