package gpflowopt

import (
	"fmt"
	"math/rand"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// ParameterRange defines the valid range for one dimension of a search
// domain. Each dimension must have a minimum and maximum value to define
// its extent.
//
// Type Parameter:
//   - T: The numeric type for this dimension (integer or float)
//
// Fields:
// - Min: The minimum (inclusive) value for this dimension
// - Max: The maximum (inclusive) value for this dimension
//
// Usage:
//
//	// Example 1: Unit interval, the usual normalized input range
//	unit := ParameterRange[float64]{
//	    Min: 0.0,
//	    Max: 1.0,
//	}
//
//	// Example 2: Learning rate range from 0.0001 to 0.1
//	learningRateRange := ParameterRange[float64]{
//	    Min: 0.0001,
//	    Max: 0.1,
//	}
//
// Validation:
// - Min must be less than or equal to Max
// - The range is inclusive of both Min and Max values
//
// Warning:
//   - Using a very large range may slow down the optimization process as
//     the search space becomes too large to explore effectively
type ParameterRange[T constraints.Integer | constraints.Float] struct {
	// Min defines the minimum allowed value (inclusive) for this dimension.
	// Example: Min: 0 means the dimension cannot be less than 0
	Min T

	// Max defines the maximum allowed value (inclusive) for this dimension.
	// Example: Max: 1 means the dimension cannot exceed 1
	Max T
}

// Domain describes the box-bounded input space an acquisition function
// operates over, one ParameterRange per input dimension.
//
// Usage example:
//
//	// A two-dimensional domain over the unit square.
//	domain := Domain{
//	    {Min: 0, Max: 1},
//	    {Min: 0, Max: 1},
//	}
type Domain []ParameterRange[float64]

// Surrogate is the probabilistic model an acquisition function scores
// against. It exposes the posterior over a batch of input points, the data
// the model was trained on, and a hook to drop any derived state the model
// caches between predictions.
//
// Implementations must be safe for concurrent use: acquisition functions
// call Predict from multiple goroutines.
//
// GaussianProcess is the reference implementation in this package, but any
// model with a Gaussian predictive posterior can serve.
type Surrogate interface {
	// Predict returns the posterior mean and variance at each point.
	// The returned slices have one entry per input point.
	Predict(points [][]float64) (mean, variance []float64, err error)

	// TrainingData returns the observed inputs and outputs the model was
	// fit to. Implementations return copies that the caller may retain.
	TrainingData() (x [][]float64, y []float64)

	// ClearCache drops any state derived from the training data, forcing
	// recomputation on the next prediction.
	ClearCache()
}

// AcquisitionParams holds the tuning parameters shared by the closed-form
// acquisition functions. Each function reads only the fields it needs.
type AcquisitionParams struct {
	// Beta controls the exploration-exploitation trade-off in the
	// LowerConfidenceBound acquisition.
	// - Higher values (e.g., 3.0 or 5.0) encourage more exploration of uncertain areas
	// - Lower values (e.g., 0.1 or 0.5) focus more on exploiting known good areas
	// Typical values range from 0.1 to 5.0, with 2.0 being a good default.
	Beta float64

	// Xi (Greek letter ξ) is an exploration parameter used by
	// ProbabilityOfImprovement and ExpectedImprovement. It sets the minimum
	// improvement over the incumbent worth pursuing.
	// - Higher values (e.g., 0.1) encourage more exploration
	// - Lower values (e.g., 0.01) focus more on local optimization
	// Typical values range from 0.01 to 0.1.
	Xi float64

	// RandomState is the random number generator used by ThompsonSampling.
	// When nil, a time-seeded source is created at construction.
	//
	// Example:
	//     params := AcquisitionParams{
	//         RandomState: rand.New(rand.NewSource(42)),
	//     }
	//
	// Warning:
	// - Do NOT share a RandomState between acquisitions you want to be
	//   independently reproducible
	RandomState *rand.Rand
}

// MESConfig holds the configuration for MaxValueEntropySearch.
//
// Fields explanation:
// - GridSize: Number of random grid points the optimum-value distribution is estimated over
// - NumSamples: Number of optimum-value samples drawn and cached per Setup
// - Tolerance: Termination tolerance of the quantile search
// - RandomState: Seedable source for grid generation and sampling
//
// Usage example:
//
//	config := DefaultMESConfig()
//	config.RandomState = rand.New(rand.NewSource(42))
//
//	mes, err := NewMaxValueEntropySearch(model, domain, config)
//
// Performance impact notes:
// - Higher GridSize = sharper estimate of the optimum-value CDF but a slower Setup
// - Higher NumSamples = smoother scores but proportionally more work per candidate
type MESConfig struct {
	// GridSize is the number of random points laid over the domain when
	// estimating the optimum-value distribution. The training inputs are
	// always appended on top of the grid.
	// Recommended range: 1000-50000
	GridSize int

	// NumSamples is the number of optimum-value samples drawn from the
	// fitted Gumbel distribution and cached for scoring.
	// Recommended range: 5-100
	NumSamples int

	// Tolerance is the termination tolerance of the quantile search, in
	// units of cumulative probability.
	Tolerance float64

	// RandomState is the random number generator used for grid generation
	// and Gumbel sampling. When nil, a time-seeded source is created at
	// construction. Inject a seeded source for reproducible runs.
	RandomState *rand.Rand
}

// GPConfig holds the kernel hyperparameters for GaussianProcess.
//
// Fields explanation:
// - Lengthscale: RBF kernel width; larger values give smoother interpolation
// - SignalVariance: Prior variance of the latent function
// - NoiseVariance: Observation noise added to the kernel diagonal
type GPConfig struct {
	// Lengthscale is the RBF kernel width. Must be positive.
	Lengthscale float64

	// SignalVariance scales the kernel and sets the prior variance of the
	// latent function. Must be positive.
	SignalVariance float64

	// NoiseVariance is the observation noise added to the kernel diagonal.
	// Must be non-negative. A strictly positive value keeps the kernel
	// matrix well conditioned; zero is accepted but risks a factorization
	// failure on near-duplicate inputs.
	NoiseVariance float64
}

//////
// Methods.
//////

// Dim returns the number of input dimensions.
func (d Domain) Dim() int {
	return len(d)
}

// Validate checks that the domain has at least one dimension and that every
// range is well formed.
func (d Domain) Validate() error {
	if len(d) == 0 {
		return &ConfigurationError{Param: "domain", Detail: "must have at least one dimension"}
	}

	for i, r := range d {
		if r.Min > r.Max {
			return &ConfigurationError{
				Param:  "domain",
				Detail: fmt.Sprintf("dimension %d has Min greater than Max", i),
			}
		}
	}

	return nil
}

// Sample draws one point uniformly from the domain.
func (d Domain) Sample(rng *rand.Rand) []float64 {
	point := make([]float64, len(d))
	for i, r := range d {
		point[i] = r.Min + rng.Float64()*(r.Max-r.Min)
	}

	return point
}
