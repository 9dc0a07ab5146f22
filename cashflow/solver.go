package cashflow

// SolverConfig holds the Newton-Raphson parameters of the yield solver.
type SolverConfig struct {
	// Tolerance is relative to the target price: the solver stops once
	// |price - target| < Tolerance * max(1, |target|).
	Tolerance float64

	MaxIterations int

	// Guess is the starting yield.
	Guess float64

	// Floor and Ceiling bound every iterate.
	Floor   float64
	Ceiling float64

	// DerivativeThreshold is the minimum derivative magnitude.
	// Below this, iteration stops to avoid division by near-zero.
	DerivativeThreshold float64
}

// DefaultSolverConfig is used when a zero SolverConfig is passed to Yield.
var DefaultSolverConfig = SolverConfig{
	Tolerance:           1e-12,
	MaxIterations:       100,
	Guess:               0.025,
	Floor:               -0.05,
	Ceiling:             0.50,
	DerivativeThreshold: 1e-15,
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
