// Package fixpoint finds real roots of a single-variable function by
// fixed-point iteration.
//
// A search rewrites f(x) = 0 as x = g(y) once per occurrence of x, picks
// starting points next to the critical points of f and runs one worker per
// starting point and map:
//
//	s := fixpoint.NewSearcher(fixpoint.DefaultOptions())
//	roots, err := s.Search(ctx, "x**3 - x - 1", 500, 1e-6)
//
// Workers that leave the real line continue on the complex plane. Traces
// that never converge are still reported; only non-finite ones are dropped.
package fixpoint

import "errors"

// Hard failures of a search. Everything else (non-convergence, complex
// excursions) is reported through Trace fields instead.
var (
	// ErrParse wraps malformed function text. The underlying
	// *symbolic.ParseError is reachable through errors.As.
	ErrParse = errors.New("parse error")

	// ErrSolveFailure means x could not be isolated, so there is no
	// closed-form iteration map.
	ErrSolveFailure = errors.New("solve failure: no closed-form iteration map for x")

	// ErrNoStartingPoint means the critical-point heuristic and its raw
	// fallback both produced no seeds.
	ErrNoStartingPoint = errors.New("starting point could not be found, try a different function")

	// ErrInvalidArgument covers non-positive iteration budgets and tolerances.
	ErrInvalidArgument = errors.New("invalid argument")
)
