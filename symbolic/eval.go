package symbolic

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Evaluate substitutes value for every variable in vars and evaluates e
// numerically. An error is returned when e has an unbound free symbol.
func Evaluate(e Expr, value complex128, vars ...string) (complex128, error) {
	env := make(Env, len(vars))
	for _, v := range vars {
		env[v] = value
	}
	z, ok := e.EvalComplex(env)
	if !ok {
		return 0, fmt.Errorf("symbolic: cannot evaluate %s", e)
	}
	return z, nil
}

// IsReal reports whether z is finite with a negligible imaginary part.
func IsReal(z complex128) bool {
	if !IsFinite(z) {
		return false
	}
	return math.Abs(imag(z)) <= 1e-12*math.Max(1, math.Abs(real(z)))
}

// IsFinite reports whether both parts of z are finite.
func IsFinite(z complex128) bool {
	return !cmplx.IsNaN(z) && !cmplx.IsInf(z)
}

func cpowInt(b complex128, n int64) complex128 {
	if n < 0 {
		return 1 / cpowInt(b, -n)
	}
	result := complex(1, 0)
	for n > 0 {
		if n&1 == 1 {
			result *= b
		}
		b *= b
		n >>= 1
	}
	return result
}

func cpow(b, e complex128) complex128 {
	if b == 0 {
		if real(e) > 0 {
			return 0
		}
		return cmplx.Inf()
	}
	return cmplx.Pow(b, e)
}
