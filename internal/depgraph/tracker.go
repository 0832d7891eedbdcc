// Package depgraph implements the dependency tracker: a mutable multiset of
// outstanding predecessor edges per successor, resolved incrementally as
// predecessors complete.
//
// A Tracker is exclusively owned by the scheduler's coordinator goroutine
// (internal/sched) and carries no internal locking by design: workers
// never touch it directly, only the coordinator does.
package depgraph

// Node is the identity type the tracker operates on. In this module it is
// always a bears.Unit, but the tracker itself only needs comparability, so
// it is kept decoupled from the bears package.
type Node = any

// Tracker holds, for each successor, a multiset of outstanding predecessors.
//
// The multiset is stored as a predecessor -> outstanding-edge-count map
// rather than literal duplicate entries, deduplicating within the same
// (successor, predecessor) pair: a count is the natural Go shape for "how
// many times has Add(s, p) been called that Resolve(p) hasn't yet undone".
type Tracker struct {
	// predecessors[successor][predecessor] = outstanding edge count.
	predecessors map[Node]map[Node]int
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{predecessors: make(map[Node]map[Node]int)}
}

// Add records that successor depends on predecessor.
//
// Duplicate calls for the same (successor, predecessor) pair increment the
// outstanding count; because a predecessor only ever resolves once per
// session, Resolve always removes the whole entry for a pair at once
// rather than decrementing it. See Resolve.
//
// Add returns ErrSelfLoop and records nothing if successor == predecessor:
// the tracker never contains a self-loop.
func (t *Tracker) Add(successor, predecessor Node) error {
	if successor == predecessor {
		return ErrSelfLoop
	}

	preds, ok := t.predecessors[successor]
	if !ok {
		preds = make(map[Node]int)
		t.predecessors[successor] = preds
	}
	preds[predecessor]++
	return nil
}

// GetDependencies returns the unresolved predecessors of node.
func (t *Tracker) GetDependencies(node Node) map[Node]struct{} {
	out := make(map[Node]struct{})
	for p := range t.predecessors[node] {
		out[p] = struct{}{}
	}
	return out
}

// GetAllDependencies returns the union of all nodes that appear as a
// predecessor of some successor — i.e. every node that something else in
// the graph depends upon.
func (t *Tracker) GetAllDependencies() map[Node]struct{} {
	out := make(map[Node]struct{})
	for _, preds := range t.predecessors {
		for p := range preds {
			out[p] = struct{}{}
		}
	}
	return out
}

// Resolve removes predecessor as an outstanding dependency of every
// successor that lists it, and returns exactly the successors whose
// predecessor set became empty as a result of this call.
//
// Resolve is idempotent: once predecessor has been fully released from a
// successor's set, calling Resolve(predecessor) again does not re-trigger
// that successor, since there is nothing left to remove for it. Repeated
// calls for an already-released predecessor return the empty set.
func (t *Tracker) Resolve(predecessor Node) []Node {
	var newlyReady []Node
	for successor, preds := range t.predecessors {
		if _, ok := preds[predecessor]; !ok {
			continue
		}
		delete(preds, predecessor)
		if len(preds) == 0 {
			delete(t.predecessors, successor)
			newlyReady = append(newlyReady, successor)
		}
	}
	return newlyReady
}

// Edges returns every (predecessor, successor) pair currently tracked, for
// diagnostics. CheckAcyclic does not call it; it reads the predecessor map
// directly. Duplicate (p, s) pairs
// added via multiple Add calls are reported once, since they share a
// single outstanding-count entry.
func (t *Tracker) Edges() [][2]Node {
	var out [][2]Node
	for successor, preds := range t.predecessors {
		for p := range preds {
			out = append(out, [2]Node{p, successor})
		}
	}
	return out
}

// Nodes returns every node that appears anywhere in the tracker, either as
// a successor with outstanding predecessors or as a predecessor of some
// successor.
func (t *Tracker) Nodes() map[Node]struct{} {
	out := make(map[Node]struct{})
	for successor, preds := range t.predecessors {
		out[successor] = struct{}{}
		for p := range preds {
			out[p] = struct{}{}
		}
	}
	return out
}
