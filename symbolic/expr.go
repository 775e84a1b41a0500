// Package symbolic is the small deterministic symbolic kernel used by the
// fixed-point root search.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat) for folded constants
//   - Immutable expression trees, safe to share between goroutines
//   - Numeric evaluation over complex128 so that real-mode iteration can
//     detect excursions into complex values
//   - Just enough algebra for the search: parsing, differentiation,
//     expansion, polynomial root extraction and variable isolation
package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	EvalComplex(env Env) (complex128, bool)
	Equal(other Expr) bool
}

// Env binds symbol names to numeric values for EvalComplex.
type Env map[string]complex128

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float64. It panics on NaN or Inf; use numFloat when
// the value may be non-finite.
func NFloat(f float64) *Num {
	n, ok := numFloat(f)
	if !ok {
		panic(fmt.Sprintf("symbolic: non-finite constant %v", f))
	}
	return n
}

func numFloat(f float64) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFloat64(f)}, true
}

// numString parses a decimal, scientific or fraction literal exactly.
func numString(s string) (*Num, bool) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, false
	}
	return &Num{val: r}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) EvalComplex(Env) (complex128, bool) { return complex(n.Float64(), 0), true }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// smallInt reports the value of n when it is an integer in [-limit, limit].
func (n *Num) smallInt(limit int64) (int64, bool) {
	if !n.val.IsInt() || !n.val.Num().IsInt64() {
		return 0, false
	}
	v := n.val.Num().Int64()
	if v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym          { return &Sym{name: name} }
func (s *Sym) Simplify() Expr     { return s }
func (s *Sym) String() string     { return s.name }
func (s *Sym) LaTeX() string      { return s.name }
func (s *Sym) Name() string       { return s.name }
func (s *Sym) Eval() (*Num, bool) { return nil, false }
func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}
func (s *Sym) Sub(v string, val Expr) Expr {
	if s.name == v {
		return val
	}
	return s
}
func (s *Sym) Diff(v string) Expr {
	if s.name == v {
		return N(1)
	}
	return N(0)
}
func (s *Sym) EvalComplex(env Env) (complex128, bool) {
	v, ok := env[s.name]
	return v, ok
}

// ============================================================
// Const: named irrational constant (pi, E)
// ============================================================

type Const struct {
	name  string
	value float64
}

var (
	Pi = &Const{name: "pi", value: math.Pi}
	E  = &Const{name: "E", value: math.E}
)

func (c *Const) Simplify() Expr                     { return c }
func (c *Const) String() string                     { return c.name }
func (c *Const) Sub(string, Expr) Expr              { return c }
func (c *Const) Diff(string) Expr                   { return N(0) }
func (c *Const) Eval() (*Num, bool)                 { return NFloat(c.value), true }
func (c *Const) EvalComplex(Env) (complex128, bool) { return complex(c.value, 0), true }
func (c *Const) Equal(other Expr) bool              { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) LaTeX() string {
	if c.name == "pi" {
		return "\\pi"
	}
	return "e"
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds numeric terms and combines like terms
// (terms equal up to a rational coefficient). Term order follows first
// appearance so printed output mirrors the input.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	numAccum := N(0)
	coeffs := map[string]*Num{}
	bases := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, v)
			continue
		}
		coeff, rest := extractCoefficient(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			bases[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], coeff)
	}
	result := []Expr{}
	for _, key := range order {
		c := coeffs[key]
		if c.IsZero() {
			continue
		}
		result = append(result, MulOf(c, bases[key]))
	}
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.String()
		switch {
		case i == 0:
			sb.WriteString(s)
		case strings.HasPrefix(s, "-"):
			sb.WriteString(" - " + s[1:])
		default:
			sb.WriteString(" + " + s)
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.LaTeX()
		switch {
		case i == 0:
			sb.WriteString(s)
		case strings.HasPrefix(s, "-"):
			sb.WriteString(" - " + s[1:])
		default:
			sb.WriteString(" + " + s)
		}
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) EvalComplex(env Env) (complex128, bool) {
	var acc complex128
	for _, t := range a.terms {
		v, ok := t.EvalComplex(env)
		if !ok {
			return 0, false
		}
		acc += v
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalSlices(a.terms, o.terms)
}

func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Simplify flattens nested products, folds the numeric coefficient and merges
// factors that share a base (x*x -> x^2, x*x^-1 -> 1).
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}
	coeff := N(1)
	exps := map[string][]Expr{}
	bases := map[string]Expr{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.String()
		if _, seen := bases[key]; !seen {
			order = append(order, key)
			bases[key] = base
		}
		exps[key] = append(exps[key], exp)
	}
	if coeff.IsZero() {
		return N(0)
	}
	others := make([]Expr, 0, len(order))
	for _, key := range order {
		var merged Expr
		if len(exps[key]) == 1 {
			merged = PowOf(bases[key], exps[key][0])
		} else {
			merged = PowOf(bases[key], AddOf(exps[key]...))
		}
		switch v := merged.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			others = append(others, v.factors...)
		default:
			others = append(others, merged)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	sorted := make([]Expr, len(ks))
	for i := range ks {
		sorted[i] = ks[i].e
	}

	if coeff.IsOne() {
		if len(sorted) == 1 {
			return sorted[0]
		}
		return &Mul{factors: sorted}
	}
	return &Mul{factors: append([]Expr{coeff}, sorted...)}
}

func (m *Mul) String() string {
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	for i, f := range m.factors {
		if n, ok := f.(*Num); ok && i == 0 && n.IsNegOne() {
			prefix = "-"
			continue
		}
		switch f.(type) {
		case *Add:
			parts = append(parts, "("+f.String()+")")
		default:
			parts = append(parts, f.String())
		}
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	for i, f := range m.factors {
		if n, ok := f.(*Num); ok && i == 0 && n.IsNegOne() {
			prefix = "-"
			continue
		}
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "\\left("+f.LaTeX()+"\\right)")
		} else {
			parts = append(parts, f.LaTeX())
		}
	}
	return prefix + strings.Join(parts, " ")
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		others := make([]Expr, 0, len(m.factors))
		others = append(others, fi.Diff(varName))
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) EvalComplex(env Env) (complex128, bool) {
	acc := complex(1, 0)
	for _, f := range m.factors {
		v, ok := f.EvalComplex(env)
		if !ok {
			return 0, false
		}
		acc *= v
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalSlices(m.factors, o.factors)
}

func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		if bn.IsZero() {
			// 0^0 is indeterminate; 0^negative is division by zero.
			if expIsNum && !en.IsNegative() {
				return N(0)
			}
			return &Pow{base: base, exp: exp}
		}
		if bn.IsOne() {
			return N(1)
		}
		if expIsNum {
			if e, ok := en.smallInt(20); ok {
				result := N(1)
				for i := int64(0); i < abs64(e); i++ {
					result = numMul(result, bn)
				}
				if e < 0 {
					return numRecip(result)
				}
				return result
			}
		}
	}
	// (b^p)^q = b^(p*q) only holds for integer q.
	if inner, ok := base.(*Pow); ok && expIsNum && en.IsInteger() {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "(" + baseStr + ")"
		}
	}
	switch e := p.exp.(type) {
	case *Sym, *Const:
	case *Num:
		if !e.IsInteger() || e.IsNegative() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok && en.val.Cmp(big.NewRat(1, 2)) == 0 {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	return numFloat(math.Pow(b.Float64(), e.Float64()))
}

// EvalComplex uses repeated multiplication for small integer exponents, the
// real power for non-negative real bases and the principal complex power
// otherwise.
func (p *Pow) EvalComplex(env Env) (complex128, bool) {
	b, ok := p.base.EvalComplex(env)
	if !ok {
		return 0, false
	}
	if en, isNum := p.exp.(*Num); isNum {
		if n, small := en.smallInt(64); small {
			return cpowInt(b, n), true
		}
	}
	e, ok := p.exp.EvalComplex(env)
	if !ok {
		return 0, false
	}
	if imag(b) == 0 && imag(e) == 0 && real(b) >= 0 {
		return complex(math.Pow(real(b), real(e)), 0), true
	}
	return cpow(b, e), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// ============================================================
// Helpers
// ============================================================

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

func equalSlices(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
