// Package graph implements edge-deduplicated traversal of a directed graph
// discovered lazily through a neighbor function.
//
// The dependency initializer (internal/bears) walks a unit's declared
// dependency types with it. The acyclicity check (internal/depgraph) does
// not use it; it runs its own Kahn's-algorithm pass over the tracker.
package graph

import "fmt"

// edge identifies a discovered (from, to) pair. Deduplication happens on the
// edge, not on the destination node, because a visitor may legitimately want
// to know about every path into a node. A node is expanded once per distinct
// incoming edge, so a node reached along several edges is expanded several
// times.
type edge[N comparable] struct {
	from N
	to   N
}

// Traverse visits every reachable directed edge (u, v) where v is a member
// of neighbors(u), starting from seeds, exactly once.
//
// visit(u, v) is called at most once per discovered edge, and only after
// the edge has been recorded as seen. A node v with several predecessors is
// passed to visit once per incoming edge, so a visitor that mutates shared
// state keyed by v (as the dependency initializer does) must itself treat
// every call after the first for the same v as a lookup.
//
// If neighbors returns an error for some node, Traverse stops immediately
// and returns that error wrapped (the node itself is not named); no further
// nodes are expanded and no partial state is exposed to the caller.
//
// Cycles do not cause an error: once every edge incident to the cycle has
// been seen, the frontier drains and Traverse returns nil.
func Traverse[N comparable](seeds []N, neighbors func(N) ([]N, error), visit func(from, to N)) error {
	seen := make(map[edge[N]]struct{})
	frontier := make([]N, 0, len(seeds))
	frontier = append(frontier, seeds...)

	for len(frontier) > 0 {
		u := frontier[0]
		frontier = frontier[1:]

		succs, err := neighbors(u)
		if err != nil {
			return fmt.Errorf("graph: expanding neighbors of node: %w", err)
		}

		for _, v := range succs {
			e := edge[N]{from: u, to: v}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}

			if visit != nil {
				visit(u, v)
			}
			frontier = append(frontier, v)
		}
	}

	return nil
}
