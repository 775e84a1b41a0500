package symbolic

import (
	"math"
	"math/cmplx"
)

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr   { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr   { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr   { return funcOf("tan", arg).Simplify() }
func AsinOf(arg Expr) Expr  { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr  { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr  { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr  { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr  { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr  { return funcOf("tanh", arg).Simplify() }
func AsinhOf(arg Expr) Expr { return funcOf("asinh", arg).Simplify() }
func AcoshOf(arg Expr) Expr { return funcOf("acosh", arg).Simplify() }
func AtanhOf(arg Expr) Expr { return funcOf("atanh", arg).Simplify() }
func ExpOf(arg Expr) Expr   { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr    { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr  { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr   { return funcOf("abs", arg).Simplify() }
func SignOf(arg Expr) Expr  { return funcOf("sign", arg).Simplify() }
func FloorOf(arg Expr) Expr { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr  { return funcOf("ceil", arg).Simplify() }

// realFuncs are the float64 forms used for constant folding.
var realFuncs = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asinh": math.Asinh,
	"acosh": math.Acosh,
	"atanh": math.Atanh,
	"exp":   math.Exp,
	"ln":    math.Log,
	"abs":   math.Abs,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sign":  realSign,
}

// complexFuncs use principal branches.
var complexFuncs = map[string]func(complex128) complex128{
	"sin":   cmplx.Sin,
	"cos":   cmplx.Cos,
	"tan":   cmplx.Tan,
	"asin":  cmplx.Asin,
	"acos":  cmplx.Acos,
	"atan":  cmplx.Atan,
	"sinh":  cmplx.Sinh,
	"cosh":  cmplx.Cosh,
	"tanh":  cmplx.Tanh,
	"asinh": cmplx.Asinh,
	"acosh": cmplx.Acosh,
	"atanh": cmplx.Atanh,
	"exp":   cmplx.Exp,
	"ln":    cmplx.Log,
	"abs":   func(z complex128) complex128 { return complex(cmplx.Abs(z), 0) },
	"floor": func(z complex128) complex128 { return complex(math.Floor(real(z)), math.Floor(imag(z))) },
	"ceil":  func(z complex128) complex128 { return complex(math.Ceil(real(z)), math.Ceil(imag(z))) },
	"sign":  complexSign,
}

func realSign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func complexSign(z complex128) complex128 {
	if imag(z) == 0 {
		return complex(realSign(real(z)), 0)
	}
	return z / complex(cmplx.Abs(z), 0)
}

// IsFunction reports whether name is a function the kernel understands.
func IsFunction(name string) bool {
	_, ok := realFuncs[name]
	return ok
}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		if fn, known := realFuncs[f.name]; known {
			if folded, finite := numFloat(fn(n.Float64())); finite {
				return folded
			}
		}
	}
	switch f.name {
	case "ln":
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 2 {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegOne() {
				return AbsOf(MulOf(m.factors[1:]...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "exp", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin", "acos", "atan":
		return "\\arc" + f.name[1:] + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case "floor":
		return "\\lfloor " + f.arg.LaTeX() + " \\rfloor"
	case "ceil":
		return "\\lceil " + f.arg.LaTeX() + " \\rceil"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	oneMinusSq := AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2))))
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "asin":
		outer = PowOf(oneMinusSq, F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(oneMinusSq, F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	case "asinh":
		outer = PowOf(AddOf(PowOf(f.arg, N(2)), N(1)), F(-1, 2))
	case "acosh":
		outer = PowOf(AddOf(PowOf(f.arg, N(2)), N(-1)), F(-1, 2))
	case "atanh":
		outer = PowOf(oneMinusSq, N(-1))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "abs":
		outer = SignOf(f.arg)
	case "sign", "floor", "ceil":
		return N(0)
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	fn, known := realFuncs[f.name]
	if !known {
		return nil, false
	}
	return numFloat(fn(n.Float64()))
}

// EvalComplex stays on the real line while the argument is real and the
// real function is defined there; otherwise it switches to the principal
// complex branch.
func (f *Func) EvalComplex(env Env) (complex128, bool) {
	z, ok := f.arg.EvalComplex(env)
	if !ok {
		return 0, false
	}
	if imag(z) == 0 {
		if fn, known := realFuncs[f.name]; known {
			if v := fn(real(z)); !math.IsNaN(v) {
				return complex(v, 0), true
			}
		}
	}
	fn, known := complexFuncs[f.name]
	if !known {
		return 0, false
	}
	return fn(z), true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }
