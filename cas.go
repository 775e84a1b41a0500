package fixpoint

import (
	"sync"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// Variable names used by every expression the search handles. Functions are
// written in Var; iteration maps are written in IterVar, the previous iterate.
const (
	Var     = "x"
	IterVar = "y"
)

// CAS is the symbolic-math collaborator consumed by the search.
type CAS interface {
	Parse(text string) (symbolic.Expr, error)
	Differentiate(e symbolic.Expr) symbolic.Expr
	Evaluate(e symbolic.Expr, value complex128) (complex128, error)
	// SolveForVariable returns iteration maps g(y) for e(x) = 0. An empty
	// result means no closed-form map exists.
	SolveForVariable(e symbolic.Expr) []symbolic.Expr
	// RealRoots fails with symbolic.ErrNotPolynomial for non-polynomial input.
	RealRoots(e symbolic.Expr, digits int) ([]float64, error)
	NumericRoots(e symbolic.Expr, searchRange float64) []float64
}

// SymbolicCAS is the CAS backed by package symbolic. Its expression trees
// are immutable, so it is safe for concurrent use.
type SymbolicCAS struct{}

func (SymbolicCAS) Parse(text string) (symbolic.Expr, error) { return symbolic.Parse(text) }

func (SymbolicCAS) Differentiate(e symbolic.Expr) symbolic.Expr { return symbolic.Diff(e, Var) }

// Evaluate binds both Var and IterVar, so it serves functions and maps alike.
func (SymbolicCAS) Evaluate(e symbolic.Expr, value complex128) (complex128, error) {
	return symbolic.Evaluate(e, value, Var, IterVar)
}

func (SymbolicCAS) SolveForVariable(e symbolic.Expr) []symbolic.Expr {
	return symbolic.SolveFor(e, Var, IterVar)
}

func (SymbolicCAS) RealRoots(e symbolic.Expr, digits int) ([]float64, error) {
	return symbolic.RealRoots(e, Var, digits)
}

func (SymbolicCAS) NumericRoots(e symbolic.Expr, searchRange float64) []float64 {
	return symbolic.NumericRoots(e, Var, searchRange, 1e-10, 100)
}

// Serialized wraps c so that Evaluate calls never overlap. Only evaluation is
// locked; the rest of the worker logic still runs in parallel.
func Serialized(c CAS) CAS {
	return &serializedCAS{CAS: c}
}

type serializedCAS struct {
	CAS
	mu sync.Mutex
}

func (s *serializedCAS) Evaluate(e symbolic.Expr, value complex128) (complex128, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CAS.Evaluate(e, value)
}
