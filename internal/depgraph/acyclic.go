package depgraph

import "fmt"

// CheckAcyclic proves a Tracker's current edge set has no cycle, using
// Kahn's algorithm over the tracker's (predecessor -> successor) edges.
//
// A dependency-type cycle is a caller error that would otherwise surface
// only as a permanent stall, with units that can never become ready.
// Running this check at session start fails fast instead. This generalizes
// a Kahn-over-canonical-node-indices validator to arbitrary comparable
// Node identities.
func CheckAcyclic(t *Tracker) error {
	nodes := allNodes(t)
	outgoing := make(map[Node][]Node, len(nodes))
	indeg := make(map[Node]int, len(nodes))
	for n := range nodes {
		indeg[n] = 0
	}
	for successor, preds := range t.predecessors {
		for p := range preds {
			outgoing[p] = append(outgoing[p], successor)
			indeg[successor]++
		}
	}

	queue := make([]Node, 0, len(nodes))
	for n := range nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}

	visitedCount := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		visitedCount++
		for _, v := range outgoing[u] {
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	if visitedCount == len(nodes) {
		return nil
	}

	return cycleError(findCycleWitness(nodes, outgoing, indeg))
}

func allNodes(t *Tracker) map[Node]struct{} {
	nodes := make(map[Node]struct{})
	for successor, preds := range t.predecessors {
		nodes[successor] = struct{}{}
		for p := range preds {
			nodes[p] = struct{}{}
		}
	}
	return nodes
}

// findCycleWitness performs a DFS restricted to the nodes that Kahn's
// algorithm could not retire (indeg[n] > 0 after draining), returning one
// witness cycle path for diagnostics. It is not required to find the
// shortest or "first" cycle, only some cycle that proves the graph is not
// acyclic.
func findCycleWitness(nodes map[Node]struct{}, outgoing map[Node][]Node, remainingIndeg map[Node]int) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[Node]int, len(nodes))

	var path []Node
	var cycle []Node

	var dfs func(u Node) bool
	dfs = func(u Node) bool {
		color[u] = gray
		path = append(path, u)
		for _, v := range outgoing[u] {
			if remainingIndeg[v] == 0 {
				continue // v was retired by Kahn's algorithm; not part of any cycle
			}
			switch color[v] {
			case white:
				if dfs(v) {
					return true
				}
			case gray:
				// Found the back-edge closing the cycle.
				for i := len(path) - 1; i >= 0; i-- {
					cycle = append(cycle, path[i])
					if path[i] == v {
						break
					}
				}
				return true
			}
		}
		path = path[:len(path)-1]
		color[u] = black
		return false
	}

	for n := range nodes {
		if remainingIndeg[n] == 0 {
			continue
		}
		if color[n] == white {
			if dfs(n) {
				break
			}
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, nodeLabel(cycle[i]))
	}
	return out
}

// nodeLabel produces a best-effort human-readable label for a node in a
// cycle diagnostic: a node with a Name() method (every internal/bears
// Unit) is labelled by it, anything else is formatted with %v.
func nodeLabel(n Node) string {
	type named interface{ Name() string }
	if nm, ok := n.(named); ok {
		return nm.Name()
	}
	return fmt.Sprintf("%v", n)
}
