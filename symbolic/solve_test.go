package symbolic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// evalAt evaluates a map in the iteration variable y.
func evalAt(t *testing.T, g symbolic.Expr, y float64) float64 {
	t.Helper()
	z, err := symbolic.Evaluate(g, complex(y, 0), "y")
	require.NoError(t, err, "evaluate %s", g)
	require.True(t, symbolic.IsReal(z), "%s at %v is not real: %v", g, y, z)
	return real(z)
}

// ============================================================
// SolveFor
// ============================================================

func TestSolveFor_EvenPowerGivesBothBranches(t *testing.T) {
	maps := symbolic.SolveFor(mustParse(t, "x**2 - 2"), "x", "y")
	require.Len(t, maps, 2)
	got := []float64{evalAt(t, maps[0], 0), evalAt(t, maps[1], 0)}
	assert.InDelta(t, math.Sqrt2, got[0], 1e-12)
	assert.InDelta(t, -math.Sqrt2, got[1], 1e-12)
}

func TestSolveFor_OneMapPerOccurrence(t *testing.T) {
	const root = 1.324717957244746
	maps := symbolic.SolveFor(mustParse(t, "x**3 - x - 1"), "x", "y")
	require.Len(t, maps, 2)
	for _, g := range maps {
		assert.False(t, symbolic.Contains(g, "x"), "map %s still mentions x", g)
		assert.InDelta(t, root, evalAt(t, g, root), 1e-9, "map %s", g)
	}
}

func TestSolveFor_OddRootStaysReal(t *testing.T) {
	maps := symbolic.SolveFor(mustParse(t, "x**3 - x - 1"), "x", "y")
	require.NotEmpty(t, maps)
	// The cube-root branch must be real for negative arguments too.
	assert.InDelta(t, -1, evalAt(t, maps[0], -2), 1e-12)
}

func TestSolveFor_Transcendental(t *testing.T) {
	const root = 0.7390851332151607
	maps := symbolic.SolveFor(mustParse(t, "cos(x) - x"), "x", "y")
	require.Len(t, maps, 2)
	for _, g := range maps {
		assert.InDelta(t, root, evalAt(t, g, root), 1e-9, "map %s", g)
	}
}

func TestSolveFor_VariableInExponent(t *testing.T) {
	maps := symbolic.SolveFor(mustParse(t, "2**x - 8"), "x", "y")
	require.Len(t, maps, 1)
	assert.InDelta(t, 3, evalAt(t, maps[0], 0), 1e-9)
}

func TestSolveFor_AbsGivesBothBranches(t *testing.T) {
	maps := symbolic.SolveFor(mustParse(t, "abs(x) - 3"), "x", "y")
	require.Len(t, maps, 2)
	assert.InDelta(t, 3, evalAt(t, maps[0], 0), 1e-12)
	assert.InDelta(t, -3, evalAt(t, maps[1], 0), 1e-12)
}

func TestSolveFor_NonInvertible(t *testing.T) {
	assert.Empty(t, symbolic.SolveFor(mustParse(t, "floor(x) - 1"), "x", "y"))
	assert.Empty(t, symbolic.SolveFor(mustParse(t, "5"), "x", "y"))
}

func TestSolveFor_DeduplicatesBranches(t *testing.T) {
	maps := symbolic.SolveFor(mustParse(t, "x**2"), "x", "y")
	require.Len(t, maps, 1)
	assert.Equal(t, "0", maps[0].String())
}
