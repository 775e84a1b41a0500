package fixpoint

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// Expression is a parsed function bound to the CAS that evaluates it.
// It holds no state beyond the wrapped tree.
type Expression struct {
	cas  CAS
	expr symbolic.Expr
}

// ParseExpression parses text into a function of Var. Any other free symbol
// is rejected as a parse error.
func ParseExpression(cas CAS, text string) (*Expression, error) {
	e, err := cas.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	var unknown []string
	for name := range symbolic.FreeSymbols(e) {
		if name != Var {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown symbol %q, only %s is allowed", ErrParse, unknown[0], Var)
	}
	return &Expression{cas: cas, expr: e}, nil
}

func (e *Expression) Expr() symbolic.Expr { return e.expr }
func (e *Expression) String() string      { return e.expr.String() }
func (e *Expression) LaTeX() string       { return e.expr.LaTeX() }

// Evaluate returns the value at v, real or complex.
func (e *Expression) Evaluate(v complex128) (complex128, error) {
	return e.cas.Evaluate(e.expr, v)
}

// EvaluateReal evaluates at a real point and reports whether the result is
// real. Non-real results come back as NaN.
func (e *Expression) EvaluateReal(x float64) (float64, bool) {
	z, err := e.Evaluate(complex(x, 0))
	if err != nil || !symbolic.IsReal(z) {
		return math.NaN(), false
	}
	return real(z), true
}

// Magnitude is |e(v)|, or +Inf when e cannot be evaluated at v.
func (e *Expression) Magnitude(v complex128) float64 {
	z, err := e.Evaluate(v)
	if err != nil || !symbolic.IsFinite(z) {
		return math.Inf(1)
	}
	return cmplx.Abs(z)
}

func (e *Expression) Differentiate() *Expression {
	return &Expression{cas: e.cas, expr: e.cas.Differentiate(e.expr)}
}

// IsConstant reports whether the expression has no free symbols.
func (e *Expression) IsConstant() bool {
	return len(symbolic.FreeSymbols(e.expr)) == 0
}

// IsolateVariable returns the iteration maps of e(x) = 0, each an expression
// in IterVar. An empty result means no closed-form map exists.
func (e *Expression) IsolateVariable() []*Expression {
	branches := e.cas.SolveForVariable(e.expr)
	maps := make([]*Expression, len(branches))
	for i, g := range branches {
		maps[i] = &Expression{cas: e.cas, expr: g}
	}
	return maps
}
