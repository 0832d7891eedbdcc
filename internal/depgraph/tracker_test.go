package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_AddAndResolve_Linear(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Add("B", "A"))

	deps := tr.GetDependencies("B")
	assert.Contains(t, deps, "A")

	ready := tr.Resolve("A")
	assert.Equal(t, []Node{"B"}, ready)
	assert.Empty(t, tr.GetDependencies("B"))
}

func TestTracker_Diamond_DoesNotReleasePrematurely(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Add("B", "A"))
	require.NoError(t, tr.Add("C", "A"))
	require.NoError(t, tr.Add("D", "B"))
	require.NoError(t, tr.Add("D", "C"))

	ready := tr.Resolve("A")
	assert.ElementsMatch(t, []Node{"B", "C"}, ready)

	// D still depends on both B and C; resolving B alone must not release D.
	ready = tr.Resolve("B")
	assert.Empty(t, ready)

	ready = tr.Resolve("C")
	assert.Equal(t, []Node{"D"}, ready)
}

func TestTracker_Resolve_IsIdempotent(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Add("B", "A"))

	first := tr.Resolve("A")
	assert.Equal(t, []Node{"B"}, first)

	second := tr.Resolve("A")
	assert.Empty(t, second)
}

func TestTracker_SelfLoopRejected(t *testing.T) {
	tr := New()
	err := tr.Add("A", "A")
	assert.ErrorIs(t, err, ErrSelfLoop)
	assert.Empty(t, tr.GetDependencies("A"))
}

func TestTracker_GetAllDependencies(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Add("B", "A"))
	require.NoError(t, tr.Add("C", "A"))

	all := tr.GetAllDependencies()
	assert.ElementsMatch(t, []Node{"A"}, keysOf(all))
}

func TestTracker_SharedPredecessorAcrossManySuccessors(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Add("X1", "SHARED"))
	require.NoError(t, tr.Add("X2", "SHARED"))
	require.NoError(t, tr.Add("X3", "SHARED"))

	ready := tr.Resolve("SHARED")
	assert.ElementsMatch(t, []Node{"X1", "X2", "X3"}, ready)
}

func keysOf(m map[Node]struct{}) []Node {
	out := make([]Node, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
