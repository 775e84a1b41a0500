package fixpoint

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gofixpoint/symbolic"
)

func analyze(t *testing.T, a Analyzer, src string) *Analysis {
	t.Helper()
	got, err := a.Analyze(context.Background(), expr(t, src))
	require.NoError(t, err, src)
	return got
}

func TestAnalyzer_Parabola(t *testing.T) {
	got := analyze(t, Analyzer{Tolerance: 1e-3}, "x**2 + 1")

	// f'' = 2 is constant, so its value stands in for the inflection point.
	want := &Analysis{
		CriticalPoints: []float64{0},
		Signs:          []Sign{Positive, Positive},
		Inflections:    []float64{2},
		Directions:     []Direction{Up, Up},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, math.Signbit(got.CriticalPoints[0]), "critical point is -0")
}

func TestAnalyzer_Cubic(t *testing.T) {
	got := analyze(t, Analyzer{Tolerance: 1e-4}, "x**3 - 3*x")

	want := &Analysis{
		CriticalPoints: []float64{-1, 1},
		Signs:          []Sign{Negative, Negative, Negative},
		Inflections:    []float64{0},
		Directions:     []Direction{Down, Down},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzer_ConstantDerivative(t *testing.T) {
	// f' = 2 has no roots; its value is the only critical point.
	got := analyze(t, Analyzer{Tolerance: 1e-3}, "2*x - 4")

	want := &Analysis{
		CriticalPoints: []float64{2},
		Signs:          []Sign{Negative, Positive},
		Inflections:    []float64{0},
		Directions:     []Direction{Up, Up},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzer_FactoredHighDegree(t *testing.T) {
	got := analyze(t, Analyzer{Tolerance: 1e-6}, "(x - 1)**12 - 2")
	require.NotEmpty(t, got.CriticalPoints)
	for _, p := range got.CriticalPoints {
		assert.InDelta(t, 1, p, 0.2)
	}
	assert.Len(t, got.Signs, len(got.CriticalPoints)+1)
}

func TestAnalyzer_DegreeLimit(t *testing.T) {
	_, err := Analyzer{Tolerance: 1e-6}.Analyze(context.Background(), expr(t, "x**600 - 2"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, symbolic.ErrDegreeTooHigh)
}

func TestAnalyzer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyzer{Tolerance: 1e-6}.Analyze(ctx, expr(t, "x**3 - 3*x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzer_NonPolynomialWithoutScan(t *testing.T) {
	got := analyze(t, Analyzer{Tolerance: 1e-6}, "exp(x) - 2")
	assert.Empty(t, got.CriticalPoints)
	assert.Empty(t, got.Signs)
}

func TestAnalyzer_NonPolynomialScan(t *testing.T) {
	got := analyze(t, Analyzer{Tolerance: 1e-6, ScanRange: 10}, "exp(x) - 2*x")
	require.Len(t, got.CriticalPoints, 1)
	assert.InDelta(t, math.Ln2, got.CriticalPoints[0], 1e-5)
	assert.Len(t, got.Signs, 2)
}

func TestAnalyzer_SamplesAroundSingularity(t *testing.T) {
	// f is undefined at 1, so only the offsets may be evaluated.
	a := Analyzer{Tolerance: 1e-3}
	f := expr(t, "1/(x - 1)")

	pairs := a.samples(f, []float64{1})
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.False(t, math.IsInf(p.near, 0) || math.IsNaN(p.near), "near sample %v", p.near)
		assert.False(t, math.IsInf(p.far, 0) || math.IsNaN(p.far), "far sample %v", p.far)
	}
	assert.InDelta(t, -1000, pairs[0].near, 1e-6)
	assert.InDelta(t, -500, pairs[0].far, 1e-6)
	assert.InDelta(t, 1000, pairs[1].near, 1e-6)
	assert.InDelta(t, 500, pairs[1].far, 1e-6)

	assert.Equal(t, []Sign{Negative, Negative}, a.signProfile(f, []float64{1}))
	assert.Equal(t, []Direction{Down, Down}, a.directionProfile(f, []float64{1}))
}
