package fixpoint

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// Mode tells how a trace was produced.
type Mode int

const (
	// ModeReal traces come from iterating the map g on the real line.
	ModeReal Mode = iota
	// ModeComplex traces come from the complex fallback, iterating f itself.
	ModeComplex
)

func (m Mode) String() string {
	if m == ModeComplex {
		return "complex"
	}
	return "real"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "real":
		*m = ModeReal
	case "complex":
		*m = ModeComplex
	default:
		return fmt.Errorf("invalid mode %q", b)
	}
	return nil
}

// Trace is the sequence of approximations produced by one worker.
type Trace struct {
	Seed   Seed
	Values []complex128
	Mode   Mode
	// RealSteps counts the real iterations discarded when the complex
	// fallback took over.
	RealSteps int
	Converged bool
}

// Final returns the last approximation, or NaN for an empty trace.
func (t *Trace) Final() complex128 {
	if len(t.Values) == 0 {
		return complex(math.NaN(), 0)
	}
	return t.Values[len(t.Values)-1]
}

// Usable reports whether the trace carries a finite approximation.
func (t *Trace) Usable() bool {
	return len(t.Values) > 0 && symbolic.IsFinite(t.Final())
}

// Worker runs fixed-point iterations. The zero value uses DefaultToleranceScale.
type Worker struct {
	// ToleranceScale multiplies the tolerance in every stopping test.
	ToleranceScale float64
}

func (w Worker) threshold(tol float64) float64 {
	scale := w.ToleranceScale
	if scale <= 0 {
		scale = DefaultToleranceScale
	}
	return tol * scale
}

// Run iterates x = g(x) from x0 for at most maxIter steps. It stops once
// both the step and the residual |f(x)| drop below the scaled tolerance.
// When g leaves the real line the remaining budget goes to RunComplex,
// started from the last real iterate; that trace replaces the real one.
func (w Worker) Run(ctx context.Context, f, g *Expression, x0 float64, maxIter int, tol float64) Trace {
	limit := w.threshold(tol)
	tr := Trace{Mode: ModeReal, Values: make([]complex128, 0, min(maxIter, 64))}
	for budget := maxIter; budget > 0; budget-- {
		if ctx.Err() != nil {
			break
		}
		next, ok := g.EvaluateReal(x0)
		if !ok {
			fallback := w.RunComplex(ctx, f, complex(x0, 0), budget, tol)
			fallback.RealSteps = len(tr.Values)
			return fallback
		}
		step := math.Abs(next - x0)
		residual := f.Magnitude(complex(next, 0))
		tr.Values = append(tr.Values, complex(next, 0))
		x0 = next
		if step < limit && residual < limit {
			tr.Converged = true
			break
		}
	}
	return tr
}

// RunComplex iterates x = f(x) over the complex plane, recording each x
// before it is replaced. It stops when |f(x)| drops below the scaled
// tolerance, when the value stops being finite or when the budget runs out.
func (w Worker) RunComplex(ctx context.Context, f *Expression, x0 complex128, maxIter int, tol float64) Trace {
	limit := w.threshold(tol)
	tr := Trace{Mode: ModeComplex, Values: make([]complex128, 0, min(maxIter, 64))}
	for budget := maxIter; budget > 0; budget-- {
		if ctx.Err() != nil {
			break
		}
		tr.Values = append(tr.Values, x0)
		next, err := f.Evaluate(x0)
		if err != nil || !symbolic.IsFinite(next) {
			break
		}
		x0 = next
		if cmplx.Abs(next) < limit {
			tr.Converged = true
			break
		}
	}
	return tr
}
