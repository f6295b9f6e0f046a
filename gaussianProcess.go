package gpflowopt

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars, types.
//////

// minPredictiveVariance floors the latent predictive variance. The exact
// posterior variance at a training input comes out of a cancellation
// between the prior variance and the data term and can land a hair below
// zero in floating point. The floor keeps Predict's contract of strictly
// positive variances intact without masking genuinely broken kernels.
const minPredictiveVariance = 1e-10

// GaussianProcess implements a thread-safe exact Gaussian Process regressor
// with a radial basis function kernel. It predicts the objective value and
// uncertainty at untested input points from previously observed results,
// and serves as the reference Surrogate for the acquisition functions in
// this package.
//
// Fields:
// - mu: RWMutex for thread-safe access to all fields
// - x: Slice of observed input points (each point is a slice of float64)
// - y: Slice of observed objective values at each input point
// - lengthscale, signalVariance, noiseVariance: Kernel hyperparameters
// - chol, alpha, cacheValid: Cached Cholesky factorization of the kernel matrix
//
// Thread safety:
// - All fields are protected by the RWMutex
// - Safe for concurrent access from multiple goroutines
// - Predictions proceed in parallel once the factorization is cached
// - Uses Lock for write operations (Update, SetSigma, ClearCache)
//
// Memory usage:
// - Grows quadratically with the number of observations (kernel matrix)
// - Each observation stores a copy of its input point.
type GaussianProcess struct {
	// mu protects access to all fields
	mu sync.RWMutex

	// x stores the observed input points
	// Each element is a slice of float64 values
	// Length of inner slices must be consistent
	x [][]float64

	// y stores the observed objective values at each point in x
	// Must have same length as x
	y []float64

	// Kernel hyperparameters. See GPConfig for their meaning.
	lengthscale    float64
	signalVariance float64
	noiseVariance  float64

	// Factorization cache, rebuilt lazily on the first prediction after
	// any change to the training data or the kernel.
	chol       mat.Cholesky
	alpha      *mat.VecDense
	cacheValid bool
}

//////
// Methods.
//////

// RBFKernel evaluates the Radial Basis Function (also known as Gaussian)
// kernel between two points. The kernel measures similarity in the input
// space, decreasing exponentially with squared distance.
//
// Parameters:
// - x1, x2: Input vectors to compare (must have same length)
//
// Returns:
// - float64: Kernel value between the points (0.0 to SignalVariance)
//
// Mathematical formula:
//
//	k(x1, x2) = signalVariance * exp(-sum((x1 - x2)^2) / (2 * lengthscale^2))
//
// Important notes:
// - Panics if input vectors have different lengths
// - Returns SignalVariance for identical points
// - Returns values close to 0.0 for distant points
//
// Thread safety:
// - Protected by read mutex for hyperparameter access
// - Multiple kernel calculations can proceed in parallel.
func (gp *GaussianProcess) RBFKernel(x1, x2 []float64) float64 {
	gp.mu.RLock()
	lengthscale, signalVariance := gp.lengthscale, gp.signalVariance
	gp.mu.RUnlock()

	return rbf(x1, x2, lengthscale, signalVariance)
}

// Predict estimates the latent objective value and its uncertainty at a
// batch of input points, conditioned on all observations so far.
//
// Parameters:
// - points: Input points to predict at (each a slice of float64)
//
// Returns:
// - mean: Posterior mean at each input point
// - variance: Posterior variance of the latent function at each point
// - error: Non-nil on dimension mismatch or a failed factorization
//
// Usage example:
//
//	gp, _ := NewGaussianProcess(DefaultGPConfig())
//	gp.Update([]float64{0.2}, 1.5)
//
//	mean, variance, err := gp.Predict([][]float64{{0.25}})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("expected value: %v ± %v\n", mean[0], math.Sqrt(variance[0]))
//
// Mathematical details:
// - mean = Kstar^T (K + noise*I)^-1 y
// - variance = k(p, p) - Kstar^T (K + noise*I)^-1 Kstar, per point
// - With no observations the prior (0, SignalVariance) is returned
//
// Important notes:
// - The kernel matrix factorization is cached across calls and rebuilt
//   only after Update, SetSigma or ClearCache
// - Variances are floored at a small positive constant; see
//   minPredictiveVariance
//
// Performance considerations:
// - Factorization is O(n^3) in the number of observations
// - Each subsequent prediction is O(n^2) per point.
func (gp *GaussianProcess) Predict(points [][]float64) (mean, variance []float64, err error) {
	if len(points) == 0 {
		return nil, nil, nil
	}

	// Take the read lock, upgrading to the write lock when the cached
	// factorization is stale. Update may invalidate the cache between the
	// two lock acquisitions, so re-check until a consistent view holds.
	for {
		gp.mu.RLock()
		if len(gp.x) == 0 || gp.cacheValid {
			break
		}
		gp.mu.RUnlock()

		gp.mu.Lock()
		if len(gp.x) > 0 && !gp.cacheValid {
			err = gp.factorizeLocked()
		}
		gp.mu.Unlock()

		if err != nil {
			return nil, nil, err
		}
	}
	defer gp.mu.RUnlock()

	// Without observations the prior applies everywhere.
	if len(gp.x) == 0 {
		mean = make([]float64, len(points))
		variance = make([]float64, len(points))
		for i := range variance {
			variance[i] = gp.signalVariance
		}

		return mean, variance, nil
	}

	n := len(gp.x)
	dim := len(gp.x[0])

	for i, p := range points {
		if len(p) != dim {
			return nil, nil, fmt.Errorf("gpflowopt: predict: point %d has dimension %d, want %d", i, len(p), dim)
		}
	}

	// Cross-covariances between the training inputs and the query points.
	kstar := mat.NewDense(n, len(points), nil)
	for i := 0; i < n; i++ {
		for j := range points {
			kstar.Set(i, j, rbf(gp.x[i], points[j], gp.lengthscale, gp.signalVariance))
		}
	}

	// Posterior mean: Kstar^T alpha, with alpha = (K + noise*I)^-1 y
	// already cached.
	meanVec := mat.NewVecDense(len(points), nil)
	meanVec.MulVec(kstar.T(), gp.alpha)

	// Posterior variance, diagonal only: k(p, p) minus the data reduction.
	v := mat.NewDense(n, len(points), nil)
	if err := gp.chol.SolveTo(v, kstar); err != nil {
		return nil, nil, fmt.Errorf("gpflowopt: predict: %w", err)
	}

	mean = make([]float64, len(points))
	variance = make([]float64, len(points))

	for j := range points {
		mean[j] = meanVec.AtVec(j)

		var reduction float64
		for i := 0; i < n; i++ {
			reduction += kstar.At(i, j) * v.At(i, j)
		}

		variance[j] = gp.signalVariance - reduction
		if variance[j] < minPredictiveVariance {
			variance[j] = minPredictiveVariance
		}
	}

	return mean, variance, nil
}

// Update adds a new observation to the model and invalidates the cached
// factorization. This is how the model is trained with new data points as
// they are evaluated during the optimization process.
//
// Parameters:
// - x: Slice of float64 values representing the input point
// - y: Observed objective value at point x
//
// Usage example:
//
//	gp, _ := NewGaussianProcess(DefaultGPConfig())
//
//	// Observation: input [1.0, 2.0] produced objective value 100.5
//	gp.Update([]float64{1.0, 2.0}, 100.5)
//
// Important notes:
// - Creates a deep copy of input slice x to prevent external modifications
// - All observations must share the same dimension
// - The next Predict call pays the O(n^3) refactorization cost
//
// Thread safety:
// - Protected by write mutex (gp.mu)
// - Safe for concurrent access from multiple goroutines
// - Blocks Predict operations while running.
func (gp *GaussianProcess) Update(x []float64, y float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	// Create deep copy of input to prevent external modifications
	newX := make([]float64, len(x))
	copy(newX, x)

	gp.x = append(gp.x, newX)
	gp.y = append(gp.y, y)
	gp.cacheValid = false
}

// TrainingData returns copies of the observed inputs and outputs. The
// caller may retain and modify the returned slices freely.
func (gp *GaussianProcess) TrainingData() ([][]float64, []float64) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	x := make([][]float64, len(gp.x))
	for i := range gp.x {
		x[i] = make([]float64, len(gp.x[i]))
		copy(x[i], gp.x[i])
	}

	y := make([]float64, len(gp.y))
	copy(y, gp.y)

	return x, y
}

// ClearCache drops the cached kernel factorization. Predictions remain
// correct either way; the next one recomputes the factorization from the
// current training data.
func (gp *GaussianProcess) ClearCache() {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.cacheValid = false
}

// SetSigma updates the kernel lengthscale of the Gaussian Process. This
// parameter controls the smoothness of the resulting model and the extent
// of influence of each observation.
//
// Parameters:
// - sigma: New lengthscale value (must be positive)
//
// Usage example:
//
//	gp, _ := NewGaussianProcess(DefaultGPConfig())
//
//	// Set wider kernel for smoother interpolation
//	gp.SetSigma(2.0)
//
//	// Set narrower kernel for more local influence
//	gp.SetSigma(0.5)
//
// Important notes:
// - Affects all subsequent predictions
// - Larger values = smoother interpolation
// - Smaller values = more local influence
// - No validation of the value (caller's responsibility)
//
// Thread safety:
// - Protected by write mutex (gp.mu)
// - Blocks Predict operations while running.
func (gp *GaussianProcess) SetSigma(sigma float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.lengthscale = sigma
	gp.cacheValid = false
}

// GetSigma returns the current kernel lengthscale of the Gaussian Process.
// This value determines how quickly the influence of observations decreases
// with distance.
//
// Returns:
// - float64: Current lengthscale value
//
// Thread safety:
// - Protected by read mutex (gp.mu)
// - Multiple concurrent reads allowed.
func (gp *GaussianProcess) GetSigma() float64 {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	return gp.lengthscale
}

// factorizeLocked rebuilds the Cholesky factorization of the kernel matrix
// and the weight vector alpha = (K + noise*I)^-1 y. Callers must hold the
// write lock.
func (gp *GaussianProcess) factorizeLocked() error {
	n := len(gp.x)

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := rbf(gp.x[i], gp.x[j], gp.lengthscale, gp.signalVariance)
			if i == j {
				v += gp.noiseVariance
			}

			k.SetSym(i, j, v)
		}
	}

	if ok := gp.chol.Factorize(k); !ok {
		return fmt.Errorf("gpflowopt: kernel matrix of %d observations is not positive definite", n)
	}

	alpha := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(alpha, mat.NewVecDense(n, gp.y)); err != nil {
		return fmt.Errorf("gpflowopt: solving for kernel weights: %w", err)
	}

	gp.alpha = alpha
	gp.cacheValid = true

	return nil
}

//////
// Factory.
//////

// DefaultGPConfig returns kernel hyperparameters suitable for objectives
// with normalized inputs and outputs of order one.
func DefaultGPConfig() GPConfig {
	return GPConfig{
		Lengthscale:    1.0,
		SignalVariance: 1.0,
		NoiseVariance:  1e-6,
	}
}

// NewGaussianProcess creates a Gaussian Process model with the given kernel
// hyperparameters.
//
// Parameters:
// - config: Kernel hyperparameters; see GPConfig
//
// Returns:
// - *GaussianProcess: Pointer to the initialized model
// - error: ConfigurationError when a hyperparameter is out of range
//
// Usage example:
//
//	config := DefaultGPConfig()
//	config.Lengthscale = 0.2
//
//	gp, err := NewGaussianProcess(config)
//	if err != nil {
//	    return err
//	}
//
// Best practices:
// - Create a new instance for each optimization task
// - Choose the lengthscale to match the input scale
// - Don't share instances between independent optimizations.
func NewGaussianProcess(config GPConfig) (*GaussianProcess, error) {
	if config.Lengthscale <= 0 {
		return nil, &ConfigurationError{Param: "Lengthscale", Detail: "must be positive"}
	}

	if config.SignalVariance <= 0 {
		return nil, &ConfigurationError{Param: "SignalVariance", Detail: "must be positive"}
	}

	if config.NoiseVariance < 0 {
		return nil, &ConfigurationError{Param: "NoiseVariance", Detail: "must not be negative"}
	}

	return &GaussianProcess{
		lengthscale:    config.Lengthscale,
		signalVariance: config.SignalVariance,
		noiseVariance:  config.NoiseVariance,
	}, nil
}

//////
// Helper functions.
//////

// rbf evaluates the radial basis function kernel for fixed hyperparameters.
func rbf(x1, x2 []float64, lengthscale, signalVariance float64) float64 {
	if len(x1) != len(x2) {
		panic("input vectors must have the same length")
	}

	// Squared Euclidean distance.
	var sum float64
	for i := range x1 {
		diff := x1[i] - x2[i]
		sum += diff * diff
	}

	return signalVariance * math.Exp(-sum/(2*lengthscale*lengthscale))
}
