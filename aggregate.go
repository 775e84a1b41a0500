package fixpoint

import (
	"fmt"
	"math"
	"strconv"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// Root is one reported result: the final approximation of a surviving trace
// and the number of approximations the trace holds.
type Root struct {
	FinalApproximation string `json:"root"`
	IterationCount     int    `json:"iterations"`
}

// largeApproximation is the magnitude from which FormatApproximation
// switches to exponent notation.
const largeApproximation = 1e15

// FormatApproximation renders z with two decimals, as a+bi when z is not
// real. Components of magnitude 1e15 or more are written with six
// significant digits in exponent notation instead.
func FormatApproximation(z complex128) string {
	if math.Abs(real(z)) >= largeApproximation || math.Abs(imag(z)) >= largeApproximation {
		return formatValue(z, 'g', 6)
	}
	return formatValue(z, 'f', 2)
}

func formatValue(z complex128, format byte, prec int) string {
	if symbolic.IsReal(z) {
		return strconv.FormatFloat(real(z), format, prec, 64)
	}
	return strconv.FormatFloat(real(z), format, prec, 64) +
		signed(strconv.FormatFloat(imag(z), format, prec, 64)) + "i"
}

func signed(s string) string {
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		return s
	}
	return "+" + s
}

// Aggregate reduces traces to roots, one per trace in slot order. Identical
// formatted roots are kept unless dedupe is set, in which case the first
// occurrence wins.
func Aggregate(traces []Trace, dedupe bool) []Root {
	roots := make([]Root, 0, len(traces))
	seen := map[string]bool{}
	for i := range traces {
		tr := &traces[i]
		if !tr.Usable() {
			continue
		}
		r := Root{FinalApproximation: FormatApproximation(tr.Final()), IterationCount: len(tr.Values)}
		if dedupe {
			if seen[r.FinalApproximation] {
				continue
			}
			seen[r.FinalApproximation] = true
		}
		roots = append(roots, r)
	}
	return roots
}

// TraceReport is the JSON form of a Trace.
type TraceReport struct {
	Seed      Seed     `json:"seed"`
	Mode      Mode     `json:"mode"`
	RealSteps int      `json:"real_steps"`
	Converged bool     `json:"converged"`
	Values    []string `json:"values"`
}

func reportTrace(tr *Trace) TraceReport {
	values := make([]string, len(tr.Values))
	for i, v := range tr.Values {
		values[i] = formatValue(v, 'g', 10)
	}
	return TraceReport{
		Seed:      tr.Seed,
		Mode:      tr.Mode,
		RealSteps: tr.RealSteps,
		Converged: tr.Converged,
		Values:    values,
	}
}

func (r Root) String() string {
	return fmt.Sprintf("%s (%d iterations)", r.FinalApproximation, r.IterationCount)
}
