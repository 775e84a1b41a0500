package symbolic

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPolynomial is returned by Coefficients and RealRoots when the
// expression is not a polynomial with numeric coefficients.
var ErrNotPolynomial = errors.New("symbolic: expression is not a polynomial")

// ErrNoConvergence is returned when the eigenvalue solver fails.
var ErrNoConvergence = errors.New("symbolic: root extraction did not converge")

// ErrDegreeTooHigh is returned by Coefficients and RealRoots for polynomials
// of degree above MaxDegree.
var ErrDegreeTooHigh = fmt.Errorf("symbolic: polynomial degree exceeds %d", MaxDegree)

// MaxDegree bounds the degree Coefficients will build. Root extraction is
// cubic in the degree.
const MaxDegree = 512

// ============================================================
// Polynomial utilities
// ============================================================

// Coefficients returns the numeric coefficients of expr in varName, lowest
// degree first. Trailing zero coefficients are trimmed.
//
// Sums, products and non-negative integer powers are multiplied out on
// coefficient slices, so factored forms such as 12*(x - 1)**11 are accepted
// whatever their exponent, up to MaxDegree.
func Coefficients(expr Expr, varName string) ([]float64, error) {
	return polyOf(expr.Simplify(), varName)
}

// IsPolynomial reports whether expr is a polynomial in varName with numeric
// coefficients.
func IsPolynomial(expr Expr, varName string) bool {
	_, err := Coefficients(expr, varName)
	return err == nil
}

// Degree returns the polynomial degree of expr in varName, or -1 when expr is
// not a polynomial.
func Degree(expr Expr, varName string) int {
	c, err := Coefficients(expr, varName)
	if err != nil {
		return -1
	}
	return len(c) - 1
}

func addTerms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

func polyOf(e Expr, v string) ([]float64, error) {
	switch t := e.(type) {
	case *Sym:
		if t.name == v {
			return []float64{0, 1}, nil
		}
	case *Add:
		sum := []float64{0}
		for _, term := range t.terms {
			p, err := polyOf(term, v)
			if err != nil {
				return nil, err
			}
			sum = polyAdd(sum, p)
		}
		return sum, nil
	case *Mul:
		prod := []float64{1}
		for _, f := range t.factors {
			p, err := polyOf(f, v)
			if err != nil {
				return nil, err
			}
			if prod, err = polyMul(prod, p); err != nil {
				return nil, err
			}
		}
		return prod, nil
	case *Pow:
		if Contains(t.base, v) {
			return polyPowOf(t, v)
		}
	}
	if Contains(e, v) {
		return nil, ErrNotPolynomial
	}
	n, ok := e.Eval()
	if !ok {
		return nil, ErrNotPolynomial
	}
	return []float64{n.Float64()}, nil
}

func polyPowOf(p *Pow, v string) ([]float64, error) {
	n, ok := p.exp.(*Num)
	if !ok || !n.val.IsInt() || n.val.Sign() < 0 {
		return nil, ErrNotPolynomial
	}
	base, err := polyOf(p.base, v)
	if err != nil {
		return nil, err
	}
	k, small := n.smallInt(MaxDegree)
	switch deg := len(base) - 1; {
	case deg == 0:
		if !small {
			return []float64{math.Pow(base[0], n.Float64())}, nil
		}
	case !small || int(k)*deg > MaxDegree:
		return nil, ErrDegreeTooHigh
	}
	return polyPow(base, int(k))
}

// polyAdd returns a + b, trimmed.
func polyAdd(a, b []float64) []float64 {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := append([]float64(nil), a...)
	for i, c := range b {
		out[i] += c
	}
	return trimPoly(out)
}

// polyMul returns a * b, trimmed. Products above MaxDegree fail.
func polyMul(a, b []float64) ([]float64, error) {
	if len(a)+len(b)-2 > MaxDegree {
		return nil, ErrDegreeTooHigh
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return trimPoly(out), nil
}

// polyPow raises p to the non-negative power k by repeated squaring. The
// base is only squared while a higher bit of k remains.
func polyPow(p []float64, k int) ([]float64, error) {
	out := []float64{1}
	var err error
	for k > 0 {
		if k&1 == 1 {
			if out, err = polyMul(out, p); err != nil {
				return nil, err
			}
		}
		k >>= 1
		if k > 0 {
			if p, err = polyMul(p, p); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func trimPoly(p []float64) []float64 {
	for len(p) > 1 && p[len(p)-1] == 0 {
		p = p[:len(p)-1]
	}
	return p
}

// RealRoots returns the real roots of a polynomial, rounded to digits
// significant digits and sorted ascending. Repeated roots appear once per
// multiplicity. Constants have no roots.
//
// Roots are the eigenvalues of the companion matrix; each real candidate is
// polished with a few Newton steps before rounding.
func RealRoots(expr Expr, varName string, digits int) ([]float64, error) {
	coeffs, err := Coefficients(expr, varName)
	if err != nil {
		return nil, err
	}
	n := len(coeffs) - 1
	switch n {
	case 0:
		return nil, nil
	case 1:
		return []float64{RoundSig(-coeffs[0]/coeffs[1], digits)}, nil
	}

	lead := coeffs[n]
	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -coeffs[n-1-j]/lead)
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, ErrNoConvergence
	}

	var roots []float64
	for _, z := range eig.Values(nil) {
		if math.Abs(imag(z)) > 1e-7*math.Max(1, cmplx.Abs(z)) {
			continue
		}
		roots = append(roots, RoundSig(polish(coeffs, real(z)), digits))
	}
	sort.Float64s(roots)
	return roots, nil
}

// polish refines a root estimate with Newton's method on the polynomial.
func polish(coeffs []float64, x float64) float64 {
	for i := 0; i < 8; i++ {
		p, dp := horner(coeffs, x)
		if p == 0 || dp == 0 {
			return x
		}
		next := x - p/dp
		if q, _ := horner(coeffs, next); math.Abs(q) >= math.Abs(p) {
			return x
		}
		x = next
	}
	return x
}

// horner evaluates the polynomial and its derivative at x.
func horner(coeffs []float64, x float64) (p, dp float64) {
	for i := len(coeffs) - 1; i >= 0; i-- {
		dp = dp*x + p
		p = p*x + coeffs[i]
	}
	return p, dp
}

// RoundSig rounds v to digits significant digits. digits <= 0 leaves v as is.
// Zero of either sign comes back as positive zero.
func RoundSig(v float64, digits int) float64 {
	if v == 0 {
		return 0
	}
	if digits <= 0 {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', digits, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// NumericRoots scans [-searchRange, searchRange] with Newton's method started
// from an evenly spaced grid and returns the distinct real roots found,
// sorted ascending. It works on any expression that evaluates to a real
// number, polynomial or not.
func NumericRoots(expr Expr, varName string, searchRange, tol float64, maxIter int) []float64 {
	if searchRange <= 0 {
		searchRange = 100
	}
	if tol <= 0 {
		tol = 1e-10
	}
	if maxIter <= 0 {
		maxIter = 100
	}
	deriv := Diff(expr, varName)
	eval := func(e Expr, x float64) float64 {
		z, ok := e.EvalComplex(Env{varName: complex(x, 0)})
		if !ok || !IsReal(z) {
			return math.NaN()
		}
		return real(z)
	}

	var roots []float64
	const gridPoints = 200
	for i := 0; i <= gridPoints; i++ {
		x := -searchRange + 2*searchRange*float64(i)/gridPoints
		for iter := 0; iter < maxIter; iter++ {
			fx := eval(expr, x)
			if math.IsNaN(fx) {
				break
			}
			if math.Abs(fx) < tol {
				dup := false
				for _, r := range roots {
					if math.Abs(r-x) < tol*100 {
						dup = true
						break
					}
				}
				if !dup {
					roots = append(roots, x)
				}
				break
			}
			dfx := eval(deriv, x)
			if math.IsNaN(dfx) || math.Abs(dfx) < 1e-15 {
				break
			}
			x -= fx / dfx
			if math.Abs(x) > searchRange*10 {
				break
			}
		}
	}
	sort.Float64s(roots)
	return roots
}
