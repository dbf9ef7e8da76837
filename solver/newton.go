// Package solver holds the Newton-Raphson root finder shared by yield, spread and bootstrap solves.
package solver

import (
	"math"

	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/errs"
)

// Func returns the objective value and its first derivative at x.
type Func func(x float64) (f, df float64)

// Result describes a converged solve.
type Result struct {
	Root       float64
	Iterations int
}

// numericStep is the central-difference half width used by Numeric.
const numericStep = 1e-7

// Numeric wraps a derivative-free objective with a central-difference derivative.
func Numeric(f func(x float64) float64) Func {
	return func(x float64) (float64, float64) {
		fx := f(x)
		df := (f(x+numericStep) - f(x-numericStep)) / (2 * numericStep)
		return fx, df
	}
}

// Newton finds x with fn(x) == 0 starting from x0.
//
// Iteration stops when |f| <= fTol or the step is below xTol. Iterates are clamped to the active
// solver rate bounds; a solve stuck at a bound while the Newton step points past it has no root in
// range. That case, a vanishing derivative or an exhausted iteration budget is a ConvergenceError
// prefixed with name.
func Newton(name string, x0 float64, fn Func, fTol, xTol float64) (Result, error) {
	cfg := config.GetSolver()
	x := cfg.Clamp(x0)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		f, df := fn(x)
		if math.IsNaN(f) || math.IsNaN(df) {
			return Result{Root: x, Iterations: iter + 1}, errs.Convergence("%s: objective is NaN at x=%v", name, x)
		}
		if math.Abs(f) <= fTol {
			return Result{Root: x, Iterations: iter + 1}, nil
		}
		if math.Abs(df) < cfg.DerivativeThreshold {
			return Result{Root: x, Iterations: iter + 1}, errs.Convergence("%s: derivative too small at iter %d (x=%v)", name, iter, x)
		}

		raw := x - f/df
		next := cfg.Clamp(raw)
		if math.Abs(next-x) <= xTol {
			if math.Abs(raw-x) > xTol {
				return Result{Root: next, Iterations: iter + 1}, errs.Convergence(
					"%s: root lies outside [%v, %v] (stuck at x=%v, residual %v)", name, cfg.RateFloor, cfg.RateCeiling, next, f)
			}
			return Result{Root: next, Iterations: iter + 1}, nil
		}
		x = next
	}

	return Result{Root: x, Iterations: cfg.MaxIterations}, errs.Convergence("%s: did not converge after %d iterations", name, cfg.MaxIterations)
}
