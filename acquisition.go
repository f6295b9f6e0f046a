package gpflowopt

import (
	"fmt"
	"math"
)

//////
// Const, vars, types.
//////

// Acquisition scores candidate input points by how valuable evaluating the
// objective there would be. Implementations hold a Surrogate and follow a
// two-phase protocol:
//
//  1. Setup recomputes any cached state from the model's current training
//     data. It must be run again after every model update.
//  2. Score evaluates a batch of candidate points against that state and
//     returns one scalar per candidate. Larger scores mark more promising
//     candidates. The underlying objective is minimized.
//
// Score reports ErrNotReady when called before a successful Setup, or after
// a Setup attempt that failed. Acquisitions without cached state document
// Setup as a no-op and are ready from construction.
//
// Implementations in this package: MaxValueEntropySearch,
// ExpectedImprovement, ProbabilityOfImprovement, LowerConfidenceBound and
// ThompsonSampling.
type Acquisition interface {
	// Setup recomputes cached state from the surrogate's training data.
	Setup() error

	// Score returns one value per candidate point. Higher is better.
	Score(candidates [][]float64) ([]float64, error)
}

// Interface conformance checks.
var (
	_ Acquisition = (*MaxValueEntropySearch)(nil)
	_ Acquisition = (*ExpectedImprovement)(nil)
	_ Acquisition = (*ProbabilityOfImprovement)(nil)
	_ Acquisition = (*LowerConfidenceBound)(nil)
	_ Acquisition = (*ThompsonSampling)(nil)
)

//////
// Helper functions.
//////

// posterior queries the surrogate at the given points and validates its
// output. Surrogate failures and degenerate posterior values both surface
// as InvalidModelStateError: a non-finite mean, or a variance that is
// non-positive or non-finite, must fail loudly instead of turning into a
// NaN score downstream.
func posterior(op string, model Surrogate, points [][]float64) (mean, variance []float64, err error) {
	mean, variance, err = model.Predict(points)
	if err != nil {
		return nil, nil, &InvalidModelStateError{Op: op, Detail: "surrogate prediction failed", Err: err}
	}

	if len(mean) != len(points) || len(variance) != len(points) {
		return nil, nil, &InvalidModelStateError{Op: op, Detail: "surrogate returned wrong number of predictions"}
	}

	for i := range mean {
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, nil, &InvalidModelStateError{Op: op, Detail: "non-finite posterior mean"}
		}

		if v := variance[i]; math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, nil, &InvalidModelStateError{Op: op, Detail: "posterior variance must be positive and finite"}
		}
	}

	return mean, variance, nil
}

// validateCandidates checks that every candidate point matches the expected
// input dimension.
func validateCandidates(dim int, candidates [][]float64) error {
	for i, c := range candidates {
		if len(c) != dim {
			return &ConfigurationError{
				Param:  "candidates",
				Detail: fmt.Sprintf("candidate %d has dimension %d, want %d", i, len(c), dim),
			}
		}
	}

	return nil
}
