package config

// Solver holds root-finding and bootstrap parameters.
type Solver struct {
	// Tolerance is the residual below which a Newton solve on a price or NPV stops.
	Tolerance float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`

	// YieldTolerance is the step size below which Newton solves on yields, rates and spreads stop.
	YieldTolerance float64 `yaml:"yield_tolerance" envconfig:"YIELD_TOLERANCE" validate:"gt=0"`

	// MaxIterations caps every Newton solve.
	MaxIterations int `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"gt=0"`

	// MaxSweeps caps the outer passes of the interpolated-curve fit from bonds.
	MaxSweeps int `yaml:"max_sweeps" envconfig:"MAX_SWEEPS" validate:"gt=0"`

	// DerivativeThreshold is the minimum derivative magnitude.
	// Below this, Newton iteration stops to avoid division by near-zero.
	DerivativeThreshold float64 `yaml:"derivative_threshold" envconfig:"DERIVATIVE_THRESHOLD" validate:"gt=0"`

	// RateFloor and RateCeiling clamp Newton iterates on rates and yields.
	RateFloor   float64 `yaml:"rate_floor" envconfig:"RATE_FLOOR" validate:"gt=-1"`
	RateCeiling float64 `yaml:"rate_ceiling" envconfig:"RATE_CEILING" validate:"gtfield=RateFloor"`

	// PriceConsistency is the relative tolerance between a given price and the price
	// implied by a given yield.
	PriceConsistency float64 `yaml:"price_consistency" envconfig:"PRICE_CONSISTENCY" validate:"gt=0"`

	// Bump is the parallel yield shift used for DV01 and effective measures.
	Bump float64 `yaml:"bump" envconfig:"BUMP" validate:"gt=0"`
}

// DefaultSolver provides production-ready default values.
var DefaultSolver = Solver{
	Tolerance:           1e-10,
	YieldTolerance:      1e-12,
	MaxIterations:       100,
	MaxSweeps:           50,
	DerivativeThreshold: 1e-15,
	RateFloor:           -0.99,
	RateCeiling:         10,
	PriceConsistency:    1e-5,
	Bump:                1e-4,
}

// solver is the active configuration. Defaults to DefaultSolver.
var solver = DefaultSolver

// SetSolver replaces the active solver configuration.
func SetSolver(s Solver) {
	solver = s
}

// GetSolver returns the active solver configuration.
func GetSolver() Solver {
	return solver
}

// Clamp bounds a rate iterate to [RateFloor, RateCeiling].
func (s Solver) Clamp(v float64) float64 {
	if v < s.RateFloor {
		return s.RateFloor
	}
	if v > s.RateCeiling {
		return s.RateCeiling
	}
	return v
}
