package sched

import (
	"log/slog"

	"github.com/relex-dev/bearcore/internal/bears"
	"github.com/relex-dev/bearcore/internal/depgraph"
	"github.com/relex-dev/bearcore/internal/events"
)

// resultMsg carries one Result produced by a worker back to the coordinator
// goroutine, which is the only goroutine allowed to call the caller's Sink.
type resultMsg struct {
	unit   bears.Unit
	result bears.Result
}

// unitDoneMsg reports that every task generated for unit has run (or that
// GenerateTasks itself failed). err is nil only if the unit produced no
// errors at all.
type unitDoneMsg struct {
	unit bears.Unit
	err  error
}

// coordinator is the single goroutine that exclusively owns the dependency
// tracker and the set of units currently in flight. It never touches task
// execution directly: workers run tasks and report back over channels, and
// the coordinator's only job is to turn completions into newly-ready units
// and to serialize calls into the caller's Sink.
//
// Newly ready units are handed to the pool, which starts one goroutine per
// dispatched unit (see pool); completions come back to this goroutine over
// the pool's channels.
type coordinator struct {
	tracker *depgraph.Tracker
	sink    bears.Sink
	events  events.Sink
	logger  *slog.Logger

	running map[bears.Unit]struct{}
	total   int
	done    int

	seq int64
}

func newCoordinator(tracker *depgraph.Tracker, sink bears.Sink, evSink events.Sink, logger *slog.Logger, total int) *coordinator {
	return &coordinator{
		tracker: tracker,
		sink:    sink,
		events:  evSink,
		logger:  logger,
		running: make(map[bears.Unit]struct{}, total),
		total:   total,
	}
}

func (c *coordinator) nextSeq() int64 {
	c.seq++
	return c.seq
}

// markDispatched records that unit has been handed to the worker pool. It
// must be called before the unit's goroutine can possibly report back, so
// the coordinator never double-counts completions.
func (c *coordinator) markDispatched(unit bears.Unit) {
	c.running[unit] = struct{}{}
	events.SafeRecord(c.events, events.Event{Kind: events.KindTaskDispatched, UnitName: unit.Name(), UnitKey: unit.Key(), Seq: c.nextSeq()})
}

// deliverResult invokes the sink for one result. Panics from a misbehaving
// sink never escape the coordinator.
func (c *coordinator) deliverResult(msg resultMsg) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("sched: sink panicked", slog.String("unit", msg.unit.Name()), slog.Any("panic", r))
		}
	}()
	if c.sink != nil {
		c.sink(msg.result)
	}
}

// finish processes a unit's completion: it removes the unit from the
// running set, resolves the tracker, and returns the units that became
// newly ready as a result. Calling finish for a unit more than once is a
// programmer error in this package (workers call it at most once per
// dispatched unit) but is handled defensively: a unit that is not in the
// running set is logged and ignored, so neither the completion count nor
// the tracker is updated a second time.
func (c *coordinator) finish(msg unitDoneMsg) []bears.Unit {
	if _, ok := c.running[msg.unit]; !ok {
		c.logger.Warn("sched: completion for a unit not in flight, ignoring", slog.String("unit", msg.unit.Name()))
		return nil
	}
	delete(c.running, msg.unit)
	c.done++

	kind := events.KindUnitCompleted
	if msg.err != nil {
		kind = events.KindTaskFailed
	}
	events.SafeRecord(c.events, events.Event{Kind: kind, UnitName: msg.unit.Name(), UnitKey: msg.unit.Key(), Err: msg.err, Seq: c.nextSeq()})

	ready := c.tracker.Resolve(msg.unit)
	return ready
}

// isComplete reports whether every unit in the session has finished.
func (c *coordinator) isComplete() bool {
	return c.done >= c.total
}
