package fixpoint_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	fixpoint "github.com/njchilds90/gofixpoint"
)

// countingRecorder remembers what a search reported.
type countingRecorder struct {
	mu          sync.Mutex
	launched    int
	traces      int
	lastOutcome string
}

func (r *countingRecorder) SearchCompleted(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOutcome = outcome
}

func (r *countingRecorder) WorkersLaunched(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launched += n
}

func (r *countingRecorder) TraceFinished(fixpoint.Mode, bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces++
}

func realTrace(values ...float64) fixpoint.Trace {
	tr := fixpoint.Trace{Mode: fixpoint.ModeReal}
	for _, v := range values {
		tr.Values = append(tr.Values, complex(v, 0))
	}
	return tr
}

func TestFormatApproximation(t *testing.T) {
	cases := []struct {
		in   complex128
		want string
	}{
		{complex(math.Sqrt2, 0), "1.41"},
		{complex(-math.Sqrt2, 0), "-1.41"},
		{complex(1, -2), "1.00-2.00i"},
		{complex(0.5, 0.25), "0.50+0.25i"},
		{0, "0.00"},
		{complex(123456.789, 0), "123456.79"},
		{complex(-2.524e100, 0), "-2.524e+100"},
		{complex(1e15, 0), "1e+15"},
		{complex(1, 2e20), "1+2e+20i"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, fixpoint.FormatApproximation(c.in))
	}
}

func TestAggregate_KeepsSlotOrderAndDuplicates(t *testing.T) {
	traces := []fixpoint.Trace{
		realTrace(3, 1.4142),
		realTrace(-1.4142),
		realTrace(1, 1.41421, 1.414213),
	}
	roots := fixpoint.Aggregate(traces, false)
	want := []fixpoint.Root{
		{FinalApproximation: "1.41", IterationCount: 2},
		{FinalApproximation: "-1.41", IterationCount: 1},
		{FinalApproximation: "1.41", IterationCount: 3},
	}
	assert.Equal(t, want, roots)
}

func TestAggregate_Dedupe(t *testing.T) {
	traces := []fixpoint.Trace{
		realTrace(1.4142),
		realTrace(1, 1.41421, 1.414213),
		realTrace(-1.4142),
	}
	roots := fixpoint.Aggregate(traces, true)
	assert.Equal(t, []fixpoint.Root{
		{FinalApproximation: "1.41", IterationCount: 1},
		{FinalApproximation: "-1.41", IterationCount: 1},
	}, roots)
}

func TestAggregate_SkipsUnusableTraces(t *testing.T) {
	traces := []fixpoint.Trace{
		{},
		realTrace(2, math.Inf(1)),
		realTrace(math.NaN()),
		{Mode: fixpoint.ModeComplex, Values: []complex128{complex(1, -2)}},
	}
	roots := fixpoint.Aggregate(traces, false)
	assert.Equal(t, []fixpoint.Root{{FinalApproximation: "1.00-2.00i", IterationCount: 1}}, roots)
	assert.Equal(t, "1.00-2.00i (1 iterations)", roots[0].String())
}

func TestTrace_Final(t *testing.T) {
	var empty fixpoint.Trace
	assert.True(t, math.IsNaN(real(empty.Final())))
	assert.False(t, empty.Usable())

	tr := realTrace(1, 2, 3)
	assert.Equal(t, complex(3, 0), tr.Final())
	assert.True(t, tr.Usable())
}
