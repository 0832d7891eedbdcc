package graph

import (
	"errors"
	"sort"
	"testing"
)

func TestTraverse_VisitsEachEdgeExactlyOnce(t *testing.T) {
	adj := map[string][]string{
		"D": {"B", "C"},
		"B": {"A"},
		"C": {"A"},
		"A": {},
	}

	var visited []string
	err := Traverse([]string{"D"}, func(n string) ([]string, error) {
		return adj[n], nil
	}, func(from, to string) {
		visited = append(visited, from+"->"+to)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Strings(visited)
	want := []string{"B->A", "C->A", "D->B", "D->C"}
	if len(visited) != len(want) {
		t.Fatalf("got %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("got %v, want %v", visited, want)
		}
	}
}

func TestTraverse_CycleTerminates(t *testing.T) {
	adj := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	}

	count := 0
	err := Traverse([]string{"A"}, func(n string) ([]string, error) {
		return adj[n], nil
	}, func(from, to string) {
		count++
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected exactly 3 edges visited in a 3-cycle, got %d", count)
	}
}

func TestTraverse_PropagatesNeighborError(t *testing.T) {
	boom := errors.New("boom")
	err := Traverse([]string{"A"}, func(n string) ([]string, error) {
		return nil, boom
	}, func(from, to string) {})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}
}

func TestTraverse_DiamondSharesSink(t *testing.T) {
	adj := map[string][]string{
		"D": {"B", "C"},
		"B": {"A"},
		"C": {"A"},
	}

	visitsOfA := 0
	err := Traverse([]string{"D"}, func(n string) ([]string, error) {
		return adj[n], nil
	}, func(from, to string) {
		if to == "A" {
			visitsOfA++
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visitsOfA != 2 {
		t.Fatalf("expected A to be visited twice (once per incoming edge), got %d", visitsOfA)
	}
}
