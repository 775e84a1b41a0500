package fixpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// Sign classifies the sampled behaviour of f next to a critical point.
type Sign int

const (
	Negative Sign = iota
	Positive
)

func (s Sign) String() string {
	if s == Positive {
		return "+"
	}
	return "-"
}

func (s Sign) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Sign) UnmarshalText(b []byte) error {
	switch string(b) {
	case "+":
		*s = Positive
	case "-":
		*s = Negative
	default:
		return fmt.Errorf("invalid sign %q", b)
	}
	return nil
}

// Direction classifies the slope of f next to a root of f″.
type Direction int

const (
	Down Direction = iota
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*d = Up
	case "down":
		*d = Down
	default:
		return fmt.Errorf("invalid direction %q", b)
	}
	return nil
}

// Analysis is the output of the critical-point pass.
type Analysis struct {
	// CriticalPoints are the roots of f′ (or the synthetic fallback point).
	CriticalPoints []float64 `json:"critical_points"`
	// Signs has one entry per critical point plus a trailing one.
	Signs []Sign `json:"signs"`
	// Inflections are the roots of f″.
	Inflections []float64 `json:"inflections"`
	// Directions has one entry per inflection point plus a trailing one.
	Directions []Direction `json:"directions"`
}

// Analyzer finds critical points of f and f′ and profiles f around them.
type Analyzer struct {
	// Tolerance is the sampling offset.
	Tolerance float64
	// Digits is the number of significant digits kept for each root.
	Digits int
	// ScanRange enables a numeric root scan of non-polynomial derivatives
	// over [-ScanRange, ScanRange]. Zero disables it.
	ScanRange float64
	Logger    *zap.Logger
}

// Analyze runs both derivative passes over f. It fails when ctx is done
// before a root extraction or when a derivative is a polynomial of degree
// above symbolic.MaxDegree.
func (a Analyzer) Analyze(ctx context.Context, f *Expression) (*Analysis, error) {
	log := a.logger()
	d1 := f.Differentiate()
	d2 := d1.Differentiate()

	points, err := a.criticalPoints(ctx, d1)
	if err != nil {
		return nil, err
	}
	inflections, err := a.criticalPoints(ctx, d2)
	if err != nil {
		return nil, err
	}
	out := &Analysis{
		CriticalPoints: points,
		Signs:          a.signProfile(f, points),
		Inflections:    inflections,
		Directions:     a.directionProfile(f, inflections),
	}
	log.Debug("critical points",
		zap.String("f1", d1.String()),
		zap.String("f2", d2.String()),
		zap.Float64s("points", out.CriticalPoints),
		zap.Stringers("signs", out.Signs),
		zap.Float64s("inflections", out.Inflections),
		zap.Stringers("directions", out.Directions),
	)
	return out, nil
}

func (a Analyzer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a Analyzer) digits() int {
	if a.Digits <= 0 {
		return DefaultDigits
	}
	return a.Digits
}

// criticalPoints returns the real roots of d, sorted ascending.
//
// A constant d yields its own value as a single synthetic point, and a
// polynomial d without real roots yields -d(0). A non-polynomial d yields
// nothing unless the numeric scan is enabled.
func (a Analyzer) criticalPoints(ctx context.Context, d *Expression) ([]float64, error) {
	if d.IsConstant() {
		if v, ok := d.EvaluateReal(0); ok {
			return []float64{v}, nil
		}
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots, err := d.cas.RealRoots(d.expr, a.digits())
	switch {
	case err == nil && len(roots) > 0:
		return roots, nil
	case err == nil:
		if v, ok := d.EvaluateReal(0); ok {
			// 0 - v keeps d(0) = 0 from turning into -0.
			return []float64{0 - v}, nil
		}
		return nil, nil
	case errors.Is(err, symbolic.ErrDegreeTooHigh):
		return nil, fmt.Errorf("%w: %w in %s", ErrInvalidArgument, err, d)
	case errors.Is(err, symbolic.ErrNotPolynomial):
		if a.ScanRange <= 0 {
			return nil, nil
		}
		return uniqueRounded(d.cas.NumericRoots(d.expr, a.ScanRange), a.digits()), nil
	default:
		a.logger().Debug("root extraction failed", zap.String("expr", d.String()), zap.Error(err))
		return nil, nil
	}
}

func uniqueRounded(values []float64, digits int) []float64 {
	seen := make(map[float64]bool, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		r := symbolic.RoundSig(v, digits)
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Float64s(out)
	return out
}

// pair holds f sampled one and two tolerances away from a point, on the
// same side.
type pair struct {
	near, far float64
	trailing  bool
}

// samples never evaluates f at a point itself. Every point is sampled on its
// left; the last point is also sampled on its right.
func (a Analyzer) samples(f *Expression, points []float64) []pair {
	if len(points) == 0 {
		return nil
	}
	tol := a.Tolerance
	out := make([]pair, 0, len(points)+1)
	for _, p := range points {
		near, _ := f.EvaluateReal(p - tol)
		far, _ := f.EvaluateReal(p - 2*tol)
		out = append(out, pair{near: near, far: far})
	}
	last := points[len(points)-1]
	near, _ := f.EvaluateReal(last + tol)
	far, _ := f.EvaluateReal(last + 2*tol)
	return append(out, pair{near: near, far: far, trailing: true})
}

func (a Analyzer) signProfile(f *Expression, points []float64) []Sign {
	pairs := a.samples(f, points)
	signs := make([]Sign, len(pairs))
	for i, p := range pairs {
		signs[i] = classifySign(p)
	}
	return signs
}

func (a Analyzer) directionProfile(f *Expression, points []float64) []Direction {
	pairs := a.samples(f, points)
	dirs := make([]Direction, len(pairs))
	for i, p := range pairs {
		dirs[i] = classifyDirection(p)
	}
	return dirs
}

func classifySign(p pair) Sign {
	if p.far > p.near && p.far > 0 {
		return Positive
	}
	return Negative
}

// classifyDirection looks at the slope in increasing x: on the left of a
// point the far sample comes first, on the right it comes last.
func classifyDirection(p pair) Direction {
	slope := p.near - p.far
	if p.trailing {
		slope = p.far - p.near
	}
	if slope > 0 {
		return Up
	}
	return Down
}
