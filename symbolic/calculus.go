package symbolic

// ============================================================
// Top-level convenience functions
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func DiffN(expr Expr, varName string, n int) Expr {
	result := expr
	for i := 0; i < n; i++ {
		result = Diff(result, varName)
	}
	return result
}

// Expand distributes products over sums and expands small non-negative
// integer powers of sums.
func Expand(e Expr) Expr { return expandExpr(e.Simplify()).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			a, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(expanded)-1)
			rest = append(rest, expanded[:i]...)
			rest = append(rest, expanded[i+1:]...)
			terms := make([]Expr, len(a.terms))
			for k, t := range a.terms {
				terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
			}
			return AddOf(terms...)
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if n, ok := v.exp.(*Num); ok {
			if exp, small := n.smallInt(10); small && exp >= 2 {
				if _, isAdd := base.(*Add); isAdd {
					result := base
					for i := int64(1); i < exp; i++ {
						result = distribute(result, base)
					}
					return result
				}
			}
		}
		return PowOf(base, expandExpr(v.exp))
	case *Func:
		return funcOf(v.name, expandExpr(v.arg)).Simplify()
	}
	return e
}

// distribute multiplies two expanded sums term by term.
func distribute(a, b Expr) Expr {
	at, bt := addTerms(a), addTerms(b)
	terms := make([]Expr, 0, len(at)*len(bt))
	for _, s := range at {
		for _, t := range bt {
			terms = append(terms, expandExpr(MulOf(s, t)))
		}
	}
	return AddOf(terms...)
}

// ============================================================
// Free Symbols and tree walking
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	walk(e, func(n Expr) {
		if s, ok := n.(*Sym); ok {
			result[s.name] = struct{}{}
		}
	})
	return result
}

// Contains reports whether the symbol varName occurs in e.
func Contains(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}

func walk(e Expr, visit func(Expr)) {
	visit(e)
	for _, c := range children(e) {
		walk(c, visit)
	}
}

func children(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		return v.terms
	case *Mul:
		return v.factors
	case *Pow:
		return []Expr{v.base, v.exp}
	case *Func:
		return []Expr{v.arg}
	}
	return nil
}

// rebuild returns a node of the same kind as e with new children, without
// simplifying it.
func rebuild(e Expr, kids []Expr) Expr {
	switch v := e.(type) {
	case *Add:
		return &Add{terms: kids}
	case *Mul:
		return &Mul{factors: kids}
	case *Pow:
		return &Pow{base: kids[0], exp: kids[1]}
	case *Func:
		return &Func{name: v.name, arg: kids[0]}
	}
	return e
}
