package bears

import (
	"fmt"
	"sort"

	"github.com/relex-dev/bearcore/internal/depgraph"
	"github.com/relex-dev/bearcore/internal/graph"
)

type groupKey struct {
	scope    any
	fileDict any
}

// Initialize computes the dependency tracker and initial ready set for a
// set of seed units.
//
// It deduplicates seeds by identity, groups them by (scope, file-dict),
// and within each group walks the dependency-type graph declared by
// Dependencies(), instantiating exactly one unit per (scope, type) and
// recording a dependency edge for every traversed (successor, predecessor)
// pair. The returned tracker and ready set cover every group.
func Initialize(seeds []Unit) (*depgraph.Tracker, []Unit, error) {
	dedupedSeeds, err := dedupeByIdentity(seeds)
	if err != nil {
		return nil, nil, err
	}

	groups, groupOrder, err := groupBy(dedupedSeeds)
	if err != nil {
		return nil, nil, err
	}

	tracker := depgraph.New()

	for _, key := range groupOrder {
		if err := initializeGroup(tracker, groups[key]); err != nil {
			return nil, nil, err
		}
	}

	ready := computeReady(tracker, dedupedSeeds)
	return tracker, ready, nil
}

func dedupeByIdentity(seeds []Unit) ([]Unit, error) {
	seen := make(map[Unit]struct{}, len(seeds))
	out := make([]Unit, 0, len(seeds))
	for _, u := range seeds {
		if u == nil {
			return nil, fmt.Errorf("bears: nil seed unit")
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}

// groupBy partitions seeds by (scope, file-dict), preserving first-seen
// group order so initialization (and therefore tracker population) is
// deterministic across runs with the same seed ordering.
func groupBy(seeds []Unit) (map[groupKey][]Unit, []groupKey, error) {
	groups := make(map[groupKey][]Unit)
	var order []groupKey

	// A non-comparable Scope()/FileDict() value panics on map insertion;
	// recoverGroupBy converts that into ErrUngroupableKey so the contract
	// stays an error rather than a crash, in the spirit of the
	// panic-recovery discipline used at the worker boundary (internal/sched,
	// grounded on onedrive-go's safeExecuteAction).
	err := recoverGroupBy(func() {
		for _, u := range seeds {
			key := groupKey{scope: u.Scope(), fileDict: u.FileDict()}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], u)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return groups, order, nil
}

func recoverGroupBy(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUngroupableKey, r)
		}
	}()
	f()
	return nil
}

// travNode is a traversal node for initializeGroup's graph walk. The seed
// layer is keyed by unit identity (unit != nil) so that two distinct seeds
// declaring the same Key (spec.md §4.3: "two seeds of the same type in the
// same scope") remain distinct nodes and each gets its own edges recorded,
// exactly like coalib's Core.py traverses actual bear instances as seeds.
// Every node below the seed layer — a dependency type reached via
// Dependencies()/Deps() — is keyed by its type Key string instead, since
// those collapse to a single shared instance per (scope, type) by design.
type travNode struct {
	unit Unit
	key  string
}

// initializeGroup runs the dependency-type traversal for one (scope,
// file-dict) group and records the resulting edges in tracker.
func initializeGroup(tracker *depgraph.Tracker, group []Unit) error {
	instances := make(map[string]Unit)
	registry := make(map[string]DependencyType)

	seedNodes := make([]travNode, 0, len(group))
	for _, u := range group {
		seedNodes = append(seedNodes, travNode{unit: u})
		if _, ok := instances[u.Key()]; ok {
			// Two seeds of the same type: the first inserted wins the
			// type slot, and downstream dependents bind to it. Each seed
			// still keeps its own node in seedNodes, so its own declared
			// dependencies are traversed regardless of which seed won the
			// type slot.
			continue
		}
		instances[u.Key()] = u
		registry[u.Key()] = seedDependencyType(u)
	}

	scope := group[0].Scope()
	fileDict := group[0].FileDict()

	resolveOrConstruct := func(key string) (Unit, error) {
		if u, ok := instances[key]; ok {
			return u, nil
		}
		dt, ok := registry[key]
		if !ok {
			return nil, fmt.Errorf("bears: dependency type %q was never declared", key)
		}
		constructed, err := dt.New(scope, fileDict)
		if err != nil {
			return nil, fmt.Errorf("bears: constructing dependency %q: %w", key, err)
		}
		instances[key] = constructed
		return constructed, nil
	}

	var traverseErr error
	visit := func(from, to travNode) {
		if traverseErr != nil {
			return
		}

		toInst, err := resolveOrConstruct(to.key)
		if err != nil {
			traverseErr = err
			return
		}

		fromInst := from.unit
		if fromInst == nil {
			var ok bool
			fromInst, ok = instances[from.key]
			if !ok {
				traverseErr = fmt.Errorf("bears: internal error: unresolved predecessor %q", from.key)
				return
			}
		}

		if err := tracker.Add(fromInst, toInst); err != nil {
			traverseErr = fmt.Errorf("bears: unit %q depends on its own type %q: %w", fromInst.Name(), to.key, ErrSelfDependency)
		}
	}

	neighbors := func(n travNode) ([]travNode, error) {
		var deps []DependencyType
		if n.unit != nil {
			deps = n.unit.Dependencies()
		} else {
			dt, ok := registry[n.key]
			if !ok {
				return nil, fmt.Errorf("bears: internal error: %q not registered", n.key)
			}
			deps = dt.Deps()
		}

		out := make([]travNode, 0, len(deps))
		for _, d := range deps {
			if _, ok := registry[d.Key]; !ok {
				registry[d.Key] = d
			}
			out = append(out, travNode{key: d.Key})
		}
		return out, nil
	}

	if err := graph.Traverse(seedNodes, neighbors, visit); err != nil {
		return err
	}
	return traverseErr
}

// seedDependencyType wraps an already-constructed seed unit as a
// DependencyType whose New trivially returns that same instance, so a
// seed satisfies its own declared type without being reconstructed.
func seedDependencyType(u Unit) DependencyType {
	return DependencyType{
		Key:  u.Key(),
		New:  func(any, any) (Unit, error) { return u, nil },
		Deps: u.Dependencies,
	}
}

// computeReady gathers the initial ready set: seeds with no outstanding
// dependencies, plus leaf dependencies (instantiated units that nothing
// depends on beneath them). A seed that is also a leaf dependency appears
// in the ready set once.
func computeReady(tracker *depgraph.Tracker, seeds []Unit) []Unit {
	var ready []Unit
	inReady := make(map[Unit]struct{}, len(seeds))
	for _, u := range seeds {
		if len(tracker.GetDependencies(u)) == 0 {
			ready = append(ready, u)
			inReady[u] = struct{}{}
		}
	}

	allDeps := tracker.GetAllDependencies()
	// Deterministic order: iterate seeds' dependency edges in the order
	// they were added isn't tracked by the tracker, so fall back to a
	// stable ordering by Name for the dependency portion of ready.
	depUnits := make([]Unit, 0, len(allDeps))
	for d := range allDeps {
		depUnits = append(depUnits, d.(Unit))
	}
	sortUnitsByName(depUnits)

	for _, d := range depUnits {
		if _, ok := inReady[d]; ok {
			continue
		}
		if len(tracker.GetDependencies(d)) == 0 {
			ready = append(ready, d)
		}
	}

	return ready
}

func sortUnitsByName(units []Unit) {
	sort.Slice(units, func(i, j int) bool {
		if units[i].Name() != units[j].Name() {
			return units[i].Name() < units[j].Name()
		}
		return units[i].Key() < units[j].Key()
	})
}
