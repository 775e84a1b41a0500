package symbolic_test

import (
	"math"
	"testing"

	"github.com/njchilds90/gofixpoint/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := symbolic.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_Diff_IsZero(t *testing.T) {
	result := symbolic.N(5).Diff("x")
	if symbolic.String(result) != "0" {
		t.Errorf("d/dx(5) should be 0, got %s", symbolic.String(result))
	}
}

// ============================================================
// Add / Mul / Pow simplification
// ============================================================

func TestAdd_CombinesLikeTerms(t *testing.T) {
	x := symbolic.S("x")
	got := symbolic.AddOf(x, x).String()
	if got != "2*x" {
		t.Errorf("want 2*x, got %s", got)
	}
}

func TestAdd_CancelsToZero(t *testing.T) {
	x := symbolic.S("x")
	got := symbolic.AddOf(x, symbolic.MulOf(symbolic.N(-1), x)).String()
	if got != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestMul_MergesPowers(t *testing.T) {
	x := symbolic.S("x")
	got := symbolic.MulOf(x, x).String()
	if got != "x^2" {
		t.Errorf("want x^2, got %s", got)
	}
}

func TestPow_FoldsIntegerExponent(t *testing.T) {
	got := symbolic.PowOf(symbolic.N(2), symbolic.N(10)).String()
	if got != "1024" {
		t.Errorf("want 1024, got %s", got)
	}
}

func TestPow_NegativeExponent(t *testing.T) {
	got := symbolic.PowOf(symbolic.N(4), symbolic.N(-1)).String()
	if got != "1/4" {
		t.Errorf("want 1/4, got %s", got)
	}
}

// ============================================================
// Calculus
// ============================================================

func TestDiff_Power(t *testing.T) {
	x := symbolic.S("x")
	got := symbolic.Diff(symbolic.PowOf(x, symbolic.N(3)), "x").String()
	if got != "3*x^2" {
		t.Errorf("want 3*x^2, got %s", got)
	}
}

func TestDiff_Sin(t *testing.T) {
	x := symbolic.S("x")
	got := symbolic.Diff(symbolic.SinOf(x), "x").String()
	if got != "cos(x)" {
		t.Errorf("want cos(x), got %s", got)
	}
}

func TestDiffN_SecondDerivative(t *testing.T) {
	x := symbolic.S("x")
	got := symbolic.DiffN(symbolic.PowOf(x, symbolic.N(3)), "x", 2).String()
	if got != "6*x" {
		t.Errorf("want 6*x, got %s", got)
	}
}

func TestExpand_Square(t *testing.T) {
	x := symbolic.S("x")
	sq := symbolic.PowOf(symbolic.AddOf(x, symbolic.N(1)), symbolic.N(2))
	got := symbolic.Expand(sq).String()
	if got != "x^2 + 2*x + 1" {
		t.Errorf("want x^2 + 2*x + 1, got %s", got)
	}
}

func TestFreeSymbols(t *testing.T) {
	e := symbolic.AddOf(symbolic.S("x"), symbolic.MulOf(symbolic.S("y"), symbolic.Pi))
	syms := symbolic.FreeSymbols(e)
	if len(syms) != 2 {
		t.Fatalf("want 2 free symbols, got %d", len(syms))
	}
	if _, ok := syms["y"]; !ok {
		t.Errorf("want y among free symbols")
	}
}

// ============================================================
// Numeric evaluation
// ============================================================

func TestEvaluate_Real(t *testing.T) {
	x := symbolic.S("x")
	e := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(-2))
	z, err := symbolic.Evaluate(e, 2, "x")
	if err != nil {
		t.Fatal(err)
	}
	if z != 2 {
		t.Errorf("want 2, got %v", z)
	}
}

func TestEvaluate_UnboundSymbol(t *testing.T) {
	if _, err := symbolic.Evaluate(symbolic.S("q"), 1, "x"); err == nil {
		t.Error("want error for unbound symbol")
	}
}

func TestEvaluate_SqrtOfNegativeIsComplex(t *testing.T) {
	z, err := symbolic.Evaluate(symbolic.SqrtOf(symbolic.S("x")), -4, "x")
	if err != nil {
		t.Fatal(err)
	}
	if symbolic.IsReal(z) {
		t.Errorf("sqrt(-4) should not be real, got %v", z)
	}
	if math.Abs(imag(z)-2) > 1e-9 {
		t.Errorf("want imaginary part 2, got %v", imag(z))
	}
}

func TestEvaluate_LogOfNegative(t *testing.T) {
	z, err := symbolic.Evaluate(symbolic.LnOf(symbolic.S("x")), -1, "x")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(imag(z)-math.Pi) > 1e-12 {
		t.Errorf("want i*pi, got %v", z)
	}
}

func TestIsReal(t *testing.T) {
	cases := []struct {
		z    complex128
		want bool
	}{
		{complex(1.5, 0), true},
		{complex(1e6, 1e-9), true},
		{complex(0, 1), false},
		{complex(math.Inf(1), 0), false},
		{complex(math.NaN(), 0), false},
	}
	for _, c := range cases {
		if got := symbolic.IsReal(c.z); got != c.want {
			t.Errorf("IsReal(%v): want %v, got %v", c.z, c.want, got)
		}
	}
}

// ============================================================
// LaTeX
// ============================================================

func TestLaTeX_Sqrt(t *testing.T) {
	got := symbolic.LaTeX(symbolic.SqrtOf(symbolic.S("x")))
	if got != `\sqrt{x}` {
		t.Errorf("want \\sqrt{x}, got %s", got)
	}
}

func TestLaTeX_Abs(t *testing.T) {
	got := symbolic.LaTeX(symbolic.AbsOf(symbolic.S("y")))
	if got != `\left|y\right|` {
		t.Errorf("want \\left|y\\right|, got %s", got)
	}
}

func TestLaTeX_FloorCeil(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.LaTeX(symbolic.FloorOf(x)); got != `\lfloor x \rfloor` {
		t.Errorf("want \\lfloor x \\rfloor, got %s", got)
	}
	if got := symbolic.LaTeX(symbolic.CeilOf(x)); got != `\lceil x \rceil` {
		t.Errorf("want \\lceil x \\rceil, got %s", got)
	}
}

func TestEvaluate_FloorCeil(t *testing.T) {
	x := symbolic.S("x")
	if z, err := symbolic.Evaluate(symbolic.FloorOf(x), 2.7, "x"); err != nil || z != 2 {
		t.Errorf("floor(2.7): want 2, got %v (%v)", z, err)
	}
	if z, err := symbolic.Evaluate(symbolic.CeilOf(x), 2.2, "x"); err != nil || z != 3 {
		t.Errorf("ceil(2.2): want 3, got %v (%v)", z, err)
	}
}

// ============================================================
// Tree accessors
// ============================================================

func TestAccessors_Decompose(t *testing.T) {
	e, err := symbolic.Parse("3*x**2 + sin(x)")
	if err != nil {
		t.Fatal(err)
	}
	sum, ok := e.(*symbolic.Add)
	if !ok {
		t.Fatalf("want *Add, got %T", e)
	}
	if len(sum.Terms()) != 2 {
		t.Fatalf("want 2 terms, got %d", len(sum.Terms()))
	}

	var sawPow, sawSin bool
	for _, term := range sum.Terms() {
		switch v := term.(type) {
		case *symbolic.Mul:
			for _, f := range v.Factors() {
				p, ok := f.(*symbolic.Pow)
				if !ok {
					continue
				}
				base, ok := p.Base().(*symbolic.Sym)
				if !ok || base.Name() != "x" || p.ExpExpr().String() != "2" {
					t.Errorf("want x^2, got %s", p)
				}
				sawPow = true
			}
		case *symbolic.Func:
			if v.FuncName() != "sin" || v.Arg().String() != "x" {
				t.Errorf("want sin(x), got %s", v)
			}
			sawSin = true
		}
	}
	if !sawPow || !sawSin {
		t.Errorf("decomposition of %s missed a node: pow=%v sin=%v", e, sawPow, sawSin)
	}
}
