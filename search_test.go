package fixpoint_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixpoint "github.com/njchilds90/gofixpoint"
	"github.com/njchilds90/gofixpoint/symbolic"
)

func newSearcher(t *testing.T, mutate ...func(*fixpoint.Options)) *fixpoint.Searcher {
	t.Helper()
	opts := fixpoint.DefaultOptions()
	opts.Workers = 4
	for _, m := range mutate {
		m(&opts)
	}
	return fixpoint.NewSearcher(opts)
}

// ============================================================
// Search: end to end
// ============================================================

func TestSearch_SquareRootOfTwo(t *testing.T) {
	s := newSearcher(t)
	roots, err := s.Search(context.Background(), "x**2 - 2", 500, 1e-6)
	require.NoError(t, err)
	require.NotEmpty(t, roots)

	found := false
	for _, r := range roots {
		assert.LessOrEqual(t, r.IterationCount, 500)
		if r.FinalApproximation == "1.41" || r.FinalApproximation == "-1.41" {
			found = true
		}
	}
	assert.True(t, found, "want 1.41 or -1.41 among %v", roots)
}

func TestSearch_SquareRootOfTwo_SlotOrder(t *testing.T) {
	s := newSearcher(t)
	roots, err := s.Search(context.Background(), "x**2 - 2", 500, 1e-6)
	require.NoError(t, err)

	// One critical point, two maps, two offsets: four slots, minus offsets first.
	want := []fixpoint.Root{
		{FinalApproximation: "1.41", IterationCount: 2},
		{FinalApproximation: "-1.41", IterationCount: 2},
		{FinalApproximation: "1.41", IterationCount: 2},
		{FinalApproximation: "-1.41", IterationCount: 2},
	}
	assert.Equal(t, want, roots)
}

func TestSearch_Dedupe(t *testing.T) {
	s := newSearcher(t, func(o *fixpoint.Options) { o.Dedupe = true })
	roots, err := s.Search(context.Background(), "x**2 - 2", 500, 1e-6)
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestSearch_Idempotent(t *testing.T) {
	s := newSearcher(t)
	a, err := s.Search(context.Background(), "x**3 - x - 1", 200, 1e-6)
	require.NoError(t, err)
	b, err := s.Search(context.Background(), "x**3 - x - 1", 200, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSearch_TraceLengthWithinBudget(t *testing.T) {
	s := newSearcher(t)
	for _, fn := range []string{"x**3 - x - 1", "x**3 + x", "x**2 - 2", "cos(x) - x + x**2"} {
		roots, err := s.Search(context.Background(), fn, 20, 1e-6)
		if errors.Is(err, fixpoint.ErrNoStartingPoint) {
			continue
		}
		require.NoError(t, err, fn)
		for _, r := range roots {
			assert.LessOrEqual(t, r.IterationCount, 20, fn)
		}
	}
}

func TestSearch_SerializedEvalMatches(t *testing.T) {
	plain := newSearcher(t)
	locked := newSearcher(t, func(o *fixpoint.Options) { o.SerializeEval = true })
	a, err := plain.Search(context.Background(), "x**2 - 2", 100, 1e-6)
	require.NoError(t, err)
	b, err := locked.Search(context.Background(), "x**2 - 2", 100, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSearch_UnboundedWorkers(t *testing.T) {
	s := newSearcher(t, func(o *fixpoint.Options) { o.Workers = 0 })
	roots, err := s.Search(context.Background(), "x**2 - 2", 100, 1e-6)
	require.NoError(t, err)
	assert.Len(t, roots, 4)
}

// ============================================================
// Search: failures
// ============================================================

func TestSearch_ParseError(t *testing.T) {
	rec := &countingRecorder{}
	s := newSearcher(t, func(o *fixpoint.Options) { o.Recorder = rec })
	_, err := s.Search(context.Background(), "x**", 500, 1e-6)
	require.ErrorIs(t, err, fixpoint.ErrParse)

	var perr *symbolic.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Zero(t, rec.launched, "no worker may start on a parse error")
	assert.Equal(t, "parse_error", rec.lastOutcome)
}

func TestSearch_UnknownSymbol(t *testing.T) {
	s := newSearcher(t)
	_, err := s.Search(context.Background(), "x + a", 500, 1e-6)
	assert.ErrorIs(t, err, fixpoint.ErrParse)
}

func TestSearch_SolveFailure(t *testing.T) {
	s := newSearcher(t)
	_, err := s.Search(context.Background(), "floor(x) - 1", 500, 1e-6)
	assert.ErrorIs(t, err, fixpoint.ErrSolveFailure)
}

func TestSearch_NoStartingPoint(t *testing.T) {
	s := newSearcher(t)
	_, err := s.Search(context.Background(), "exp(x) - 2", 500, 1e-6)
	require.ErrorIs(t, err, fixpoint.ErrNoStartingPoint)
	assert.Contains(t, err.Error(), "try a different function")
}

func TestSearch_ScanRangeFindsStartingPoint(t *testing.T) {
	s := newSearcher(t, func(o *fixpoint.Options) { o.ScanRange = 10 })
	roots, err := s.Search(context.Background(), "exp(x) - 2*x - 1", 200, 1e-6)
	require.NoError(t, err)
	for _, r := range roots {
		assert.LessOrEqual(t, r.IterationCount, 200)
	}
}

func TestSearch_FactoredHighDegree(t *testing.T) {
	s := newSearcher(t)
	roots, err := s.Search(context.Background(), "(x - 1)**12 - 2", 200, 1e-6)
	require.NoError(t, err)

	found := false
	for _, r := range roots {
		if r.FinalApproximation == "2.06" {
			found = true
		}
	}
	assert.True(t, found, "want 1 + 2^(1/12) among %v", roots)
}

func TestSearch_DegreeLimit(t *testing.T) {
	s := newSearcher(t)
	for _, fn := range []string{"x**65536 - 2", "x**3000 - 2"} {
		_, err := s.Search(context.Background(), fn, 10, 1e-6)
		require.ErrorIs(t, err, fixpoint.ErrInvalidArgument, fn)
		assert.ErrorIs(t, err, symbolic.ErrDegreeTooHigh, fn)
		assert.Equal(t, "invalid_argument", fixpoint.Outcome(err))
	}
}

func TestSearch_InvalidArguments(t *testing.T) {
	s := newSearcher(t)
	_, err := s.Search(context.Background(), "x**2 - 2", 0, 1e-6)
	assert.ErrorIs(t, err, fixpoint.ErrInvalidArgument)
	_, err = s.Search(context.Background(), "x**2 - 2", 10, 0)
	assert.ErrorIs(t, err, fixpoint.ErrInvalidArgument)
	_, err = s.Search(context.Background(), "x**2 - 2", 10, -1)
	assert.ErrorIs(t, err, fixpoint.ErrInvalidArgument)
}

func TestSearch_Cancelled(t *testing.T) {
	s := newSearcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Search(ctx, "x**2 - 2", 500, 1e-6)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "cancelled", fixpoint.Outcome(err))
}

// ============================================================
// Analyze
// ============================================================

func TestAnalyze_Report(t *testing.T) {
	s := newSearcher(t)
	rep, err := s.Analyze(context.Background(), "x**2 - 2", 500, 1e-6)
	require.NoError(t, err)

	assert.Equal(t, "x^2 - 2", rep.Function)
	assert.Equal(t, "2*x", rep.Derivative)
	assert.Equal(t, "2", rep.SecondDerivative)
	assert.Len(t, rep.Maps, 2)
	assert.Equal(t, []float64{0}, rep.Analysis.CriticalPoints)
	assert.False(t, math.Signbit(rep.Analysis.CriticalPoints[0]))
	assert.False(t, math.Signbit(rep.Seeds.Retained[0]))
	assert.Equal(t, []fixpoint.Sign{fixpoint.Negative, fixpoint.Negative}, rep.Analysis.Signs)
	assert.True(t, rep.Seeds.Fallback)
	assert.Len(t, rep.Seeds.Seeds, 2*1*2)
	assert.Len(t, rep.Traces, 4)
	assert.Len(t, rep.Roots, 4)
}

func TestAnalyze_MonotonicFallsBackToRawPoints(t *testing.T) {
	s := newSearcher(t)
	rep, err := s.Analyze(context.Background(), "x**3 + x", 100, 1e-6)
	require.NoError(t, err)

	// f' = 3x^2 + 1 has no real root, so the synthetic point -f'(0) is used.
	assert.Equal(t, []float64{-1}, rep.Analysis.CriticalPoints)
	assert.True(t, rep.Seeds.Fallback)
	assert.Equal(t, []float64{-1}, rep.Seeds.Retained)
	assert.Len(t, rep.Seeds.Seeds, 2*1*len(rep.Maps))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", fixpoint.Outcome(nil))
	assert.Equal(t, "solve_failure", fixpoint.Outcome(fixpoint.ErrSolveFailure))
	assert.Equal(t, "no_starting_point", fixpoint.Outcome(fixpoint.ErrNoStartingPoint))
	assert.Equal(t, "invalid_argument", fixpoint.Outcome(fixpoint.ErrInvalidArgument))
	assert.Equal(t, "error", fixpoint.Outcome(errors.New("other")))
}
