package symbolic

// ============================================================
// Variable isolation
// ============================================================

// SolveFor rewrites expr = 0 as varName = g, one branch per occurrence of
// varName that can be isolated. For each occurrence the other occurrences
// are renamed to iterVar, so every returned g is an expression in iterVar
// only and a fixed point g(r) = r is a root of expr.
//
// Isolation walks from the root of the tree to the chosen occurrence and
// inverts each node on the way: sums and products move their siblings to the
// other side, numeric powers take roots (both signs for even roots, a real
// root for odd ones), exponentials take logarithms and functions apply their
// inverse. Each branch is expanded before it is returned. Paths through
// non-invertible nodes are skipped. Duplicate
// branches and the identity map are dropped. An empty result means no
// closed-form map exists.
func SolveFor(expr Expr, varName, iterVar string) []Expr {
	expr = expr.Simplify()
	total := countOccurrences(expr, varName)

	var out []Expr
	seen := map[string]bool{}
	for k := 0; k < total; k++ {
		idx := 0
		marked := markOccurrence(expr, varName, iterVar, k, &idx)
		for _, g := range isolate(marked, varName, N(0)) {
			g = Expand(g)
			if Contains(g, varName) {
				continue
			}
			key := g.String()
			if key == iterVar || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, g)
		}
	}
	return out
}

func countOccurrences(e Expr, varName string) int {
	n := 0
	walk(e, func(node Expr) {
		if s, ok := node.(*Sym); ok && s.name == varName {
			n++
		}
	})
	return n
}

// markOccurrence keeps the keep-th occurrence (pre-order) of varName and
// renames all the others to iterVar.
func markOccurrence(e Expr, varName, iterVar string, keep int, idx *int) Expr {
	if s, ok := e.(*Sym); ok {
		if s.name != varName {
			return s
		}
		i := *idx
		*idx++
		if i == keep {
			return s
		}
		return S(iterVar)
	}
	kids := children(e)
	if len(kids) == 0 {
		return e
	}
	newKids := make([]Expr, len(kids))
	for i, c := range kids {
		newKids[i] = markOccurrence(c, varName, iterVar, keep, idx)
	}
	return rebuild(e, newKids)
}

// isolate solves e = target for varName, which occurs exactly once in e.
func isolate(e Expr, varName string, target Expr) []Expr {
	switch v := e.(type) {
	case *Sym:
		if v.name == varName {
			return []Expr{target}
		}
	case *Add:
		inner, rest := split(v.terms, varName)
		if inner == nil {
			return nil
		}
		return isolate(inner, varName, AddOf(target, MulOf(N(-1), AddOf(rest...))))
	case *Mul:
		inner, rest := split(v.factors, varName)
		if inner == nil {
			return nil
		}
		return isolate(inner, varName, MulOf(target, PowOf(MulOf(rest...), N(-1))))
	case *Pow:
		if Contains(v.base, varName) {
			var out []Expr
			for _, root := range invertPower(target, v.exp) {
				out = append(out, isolate(v.base, varName, root)...)
			}
			return out
		}
		// varName sits in the exponent: base^u = t  =>  u = ln(t)/ln(base)
		return isolate(v.exp, varName, MulOf(LnOf(target), PowOf(LnOf(v.base), N(-1))))
	case *Func:
		var out []Expr
		for _, t := range invertFunc(v.name, target) {
			out = append(out, isolate(v.arg, varName, t)...)
		}
		return out
	}
	return nil
}

func split(items []Expr, varName string) (Expr, []Expr) {
	var inner Expr
	rest := make([]Expr, 0, len(items))
	for _, it := range items {
		if inner == nil && Contains(it, varName) {
			inner = it
			continue
		}
		rest = append(rest, it)
	}
	return inner, rest
}

// invertPower returns the branches of u where u^exp = t.
func invertPower(t, exp Expr) []Expr {
	n, ok := exp.(*Num)
	if !ok {
		return []Expr{PowOf(t, PowOf(exp, N(-1)))}
	}
	inv := numRecip(n)
	k, isInt := n.smallInt(1 << 16)
	switch {
	case isInt && k%2 == 0:
		r := PowOf(t, inv)
		return []Expr{r, MulOf(N(-1), r)}
	case isInt:
		// Real odd root: sign(t)*|t|^(1/k).
		return []Expr{MulOf(SignOf(t), PowOf(AbsOf(t), inv))}
	}
	return []Expr{PowOf(t, inv)}
}

// invertFunc returns the branches of u where name(u) = t.
func invertFunc(name string, t Expr) []Expr {
	switch name {
	case "sin":
		return []Expr{AsinOf(t)}
	case "cos":
		return []Expr{AcosOf(t)}
	case "tan":
		return []Expr{AtanOf(t)}
	case "asin":
		return []Expr{SinOf(t)}
	case "acos":
		return []Expr{CosOf(t)}
	case "atan":
		return []Expr{TanOf(t)}
	case "sinh":
		return []Expr{AsinhOf(t)}
	case "cosh":
		r := AcoshOf(t)
		return []Expr{r, MulOf(N(-1), r)}
	case "tanh":
		return []Expr{AtanhOf(t)}
	case "asinh":
		return []Expr{SinhOf(t)}
	case "acosh":
		return []Expr{CoshOf(t)}
	case "atanh":
		return []Expr{TanhOf(t)}
	case "exp":
		return []Expr{LnOf(t)}
	case "ln":
		return []Expr{ExpOf(t)}
	case "abs":
		return []Expr{t, MulOf(N(-1), t)}
	}
	return nil
}
